package interact

import (
	"claimguard.ai/internal/config"
	"claimguard.ai/internal/protect/materials"
)

type Trust string

const (
	TrustNone      Trust = "NONE"
	TrustAccess    Trust = "ACCESS"
	TrustContainer Trust = "CONTAINER"
)

// Rules is built once and then only read; reloads build a new Rules value.
type Rules struct {
	Access     *materials.Collection
	Container  *materials.Collection
	Explodable *materials.Collection
}

func FromConfig(m config.Materials) Rules {
	return Rules{
		Access:     materials.ParseCollection(m.AccessTrust),
		Container:  materials.ParseCollection(m.ContainerTrust),
		Explodable: materials.ParseCollection(m.Explodable),
	}
}

// Required returns the trust level a visitor needs to use the block.
// Container trust wins when a type is listed in both collections.
func (r Rules) Required(typeID int, variant uint8) Trust {
	q := materials.Exact(typeID, variant, "")
	switch {
	case r.Container.Contains(q):
		return TrustContainer
	case r.Access.Contains(q):
		return TrustAccess
	default:
		return TrustNone
	}
}

func (r Rules) IsExplodable(typeID int, variant uint8) bool {
	return r.Explodable.Contains(materials.Exact(typeID, variant, ""))
}

// RegionGuard is an external region-protection plugin.
type RegionGuard interface {
	CanBuild(player string, min, max [3]int) bool
}

// CanBuild asks guard, treating a missing plugin as no restriction.
func CanBuild(guard RegionGuard, player string, min, max [3]int) bool {
	if guard == nil {
		return true
	}
	return guard.CanBuild(player, min, max)
}
