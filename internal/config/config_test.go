package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "words.txt"), "# comment\nheck\n\n  darn  \n")
	p := filepath.Join(dir, "protection.yaml")
	writeFile(t, p, `
chat:
  banned_words: ["alpha", "beta"]
  banned_words_file: words.txt
  action: censor
materials:
  access_trust: "69:*:lever"
  explodable: ""
bans:
  default_duration_hours: 24
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chat.Action != ActionCensor {
		t.Fatalf("action=%q", cfg.Chat.Action)
	}
	if got := strings.Join(cfg.Words(), ","); got != "alpha,beta,heck,darn" {
		t.Fatalf("words=%q", got)
	}
	if cfg.Chat.BannedWordsFile != filepath.Join(dir, "words.txt") {
		t.Fatalf("words file not resolved: %q", cfg.Chat.BannedWordsFile)
	}
	if cfg.Materials.AccessTrust != "69:*:lever" || cfg.Materials.Explodable != "" {
		t.Fatalf("materials=%#v", cfg.Materials)
	}
	if cfg.Materials.ContainerTrust != Defaults().Materials.ContainerTrust {
		t.Fatalf("omitted keys should keep defaults")
	}
	if cfg.Bans.DefaultDurationHours != 24 {
		t.Fatalf("bans=%#v", cfg.Bans)
	}
}

func TestParse_EmptyDocumentUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil, ".")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Chat.Action != ActionBlock || cfg.Materials.ContainerTrust == "" || len(cfg.Words()) != 0 {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestParse_RejectsInvalid(t *testing.T) {
	cases := []string{
		"chat:\n  action: shout\n",
		"chat:\n  banned_words: nope\n",
		"bans:\n  default_duration_hours: -1\n",
		"unknown_key: 1\n",
		"chat: [\n",
	}
	for _, doc := range cases {
		if _, err := Parse([]byte(doc), "."); err == nil {
			t.Fatalf("expected error for %q", doc)
		}
	}
}

func TestParse_MissingWordsFile(t *testing.T) {
	_, err := Parse([]byte("chat:\n  banned_words_file: nope.txt\n"), t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "banned_words_file") {
		t.Fatalf("expected banned_words_file error, got %v", err)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "protection.yaml")
	writeFile(t, p, "chat:\n  banned_words: [alpha]\n")

	changes := make(chan Config, 4)
	w, err := Watch(p, func(c Config) { changes <- c }, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	writeFile(t, p, "chat:\n  banned_words: [beta]\n")
	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changes:
			if strings.Join(c.Words(), ",") == "beta" {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for reload")
		}
	}
}

func TestWatch_FollowsNewWordsFile(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	p := filepath.Join(dir, "protection.yaml")
	writeFile(t, filepath.Join(dir, "words.txt"), "alpha\n")
	writeFile(t, filepath.Join(other, "words.txt"), "beta\n")
	writeFile(t, p, "chat:\n  banned_words_file: words.txt\n")

	changes := make(chan Config, 8)
	w, err := Watch(p, func(c Config) { changes <- c }, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	waitFor := func(want string) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case c := <-changes:
				if strings.Join(c.Words(), ",") == want {
					return
				}
			case <-deadline:
				t.Fatalf("timed out waiting for words %q", want)
			}
		}
	}

	writeFile(t, p, "chat:\n  banned_words_file: "+filepath.Join(other, "words.txt")+"\n")
	waitFor("beta")

	writeFile(t, filepath.Join(other, "words.txt"), "gamma\n")
	waitFor("gamma")
}
