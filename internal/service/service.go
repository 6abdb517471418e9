package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"claimguard.ai/internal/config"
	"claimguard.ai/internal/persistence/indexdb"
	persistlog "claimguard.ai/internal/persistence/log"
	"claimguard.ai/internal/protect/bans"
	"claimguard.ai/internal/protect/chat"
	"claimguard.ai/internal/protect/interact"
)

// BanStore returns indexdb.ErrNotFound when ip has no active ban.
type BanStore interface {
	ActiveBan(ctx context.Context, ip string, now time.Time) (bans.Record, error)
}

type AuditSink interface {
	WriteAudit(persistlog.AuditEntry) error
}

type Options struct {
	Bans  BanStore
	Audit AuditSink
	Guard interact.RegionGuard
	Log   *log.Logger
	Now   func() time.Time
}

type ruleset struct {
	filter *chat.Filter
	rules  interact.Rules
}

// Service answers protection checks. Reload swaps the whole ruleset, so
// readers never see a collection being mutated.
type Service struct {
	opts Options
	cur  atomic.Pointer[ruleset]
}

func New(cfg config.Config, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Service{opts: opts}
	s.Reload(cfg)
	return s
}

func (s *Service) Reload(cfg config.Config) {
	s.cur.Store(&ruleset{
		filter: chat.NewFilter(cfg.Words(), cfg.Chat.Action),
		rules:  interact.FromConfig(cfg.Materials),
	})
}

type Summary struct {
	BannedWords    int
	ChatAction     string
	AccessTrust    string
	ContainerTrust string
	Explodable     string
}

func (s *Service) Summary() Summary {
	rs := s.cur.Load()
	return Summary{
		BannedWords:    rs.filter.Len(),
		ChatAction:     rs.filter.Action(),
		AccessTrust:    rs.rules.Access.String(),
		ContainerTrust: rs.rules.Container.String(),
		Explodable:     rs.rules.Explodable.String(),
	}
}

func (s *Service) CheckChat(session, player, text string) chat.Verdict {
	v := s.cur.Load().filter.Check(text)
	if v.Flagged {
		s.audit(persistlog.AuditEntry{Kind: persistlog.AuditChatFlagged, Session: session, Player: player, Detail: text})
	}
	return v
}

type InteractVerdict struct {
	Trust      interact.Trust
	Explodable bool
}

func (s *Service) CheckInteract(session, player string, typeID int, variant uint8) InteractVerdict {
	rs := s.cur.Load()
	v := InteractVerdict{
		Trust:      rs.rules.Required(typeID, variant),
		Explodable: rs.rules.IsExplodable(typeID, variant),
	}
	// The player's trust is unknown here, so this records the lookup only.
	if v.Trust != interact.TrustNone {
		s.audit(persistlog.AuditEntry{
			Kind: persistlog.AuditInteractProtected, Session: session, Player: player,
			Detail: fmt.Sprintf("%d:%d needs %s", typeID, variant, v.Trust),
		})
	}
	return v
}

func (s *Service) CheckRegion(player string, min, max [3]int) bool {
	return interact.CanBuild(s.opts.Guard, player, min, max)
}

// CheckBan reports the active ban on ip, if any. Without a ban store every
// address is allowed.
func (s *Service) CheckBan(ctx context.Context, session, ip string) (bans.Record, bool, error) {
	norm, err := bans.NormalizeIP(ip)
	if err != nil {
		return bans.Record{}, false, err
	}
	if s.opts.Bans == nil {
		return bans.Record{}, false, nil
	}
	rec, err := s.opts.Bans.ActiveBan(ctx, norm, s.opts.Now())
	if err != nil {
		if errors.Is(err, indexdb.ErrNotFound) {
			return bans.Record{}, false, nil
		}
		return bans.Record{}, false, fmt.Errorf("ban lookup %s: %w", norm, err)
	}
	s.audit(persistlog.AuditEntry{Kind: persistlog.AuditBannedConnect, Session: session, Detail: norm})
	return rec, true, nil
}

func (s *Service) audit(e persistlog.AuditEntry) {
	if s.opts.Audit == nil {
		return
	}
	e.Time = s.opts.Now().UTC()
	if err := s.opts.Audit.WriteAudit(e); err != nil && s.opts.Log != nil {
		s.opts.Log.Printf("audit %s: %v", e.Kind, err)
	}
}
