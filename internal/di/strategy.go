package di

import (
	"reflect"

	"github.com/xraph/cohesion/internal/structure"
	"github.com/xraph/cohesion/internal/typeinfo"
)

// Strategy is how the service resolver satisfies one constructor parameter.
type Strategy int

const (
	// StrategyPlain uses the parameter's default.
	StrategyPlain Strategy = iota
	// StrategyConfig injects the application configuration section.
	StrategyConfig
	// StrategyCompanionDAO injects the persistence object paired with the service by name.
	StrategyCompanionDAO
	// StrategyPersistence injects an explicitly typed persistence object.
	StrategyPersistence
	// StrategyNestedService resolves another service.
	StrategyNestedService
	// StrategyPrincipal injects the active user.
	StrategyPrincipal
	// StrategyUtility delegates to the utility resolver.
	StrategyUtility
)

func (s Strategy) String() string {
	switch s {
	case StrategyConfig:
		return "config"
	case StrategyCompanionDAO:
		return "companion-dao"
	case StrategyPersistence:
		return "persistence"
	case StrategyNestedService:
		return "nested-service"
	case StrategyPrincipal:
		return "principal"
	case StrategyUtility:
		return "utility"
	default:
		return "plain"
	}
}

// Conventional parameter names, honoured when the parameter is typed as any.
const (
	ParamConfig = "config"
	ParamDAO    = "dao"
	ParamUser   = "user"
)

// Slot is a classified parameter. Target names the type to resolve for the
// persistence, nested service and utility strategies.
type Slot struct {
	Param    typeinfo.Param
	Strategy Strategy
	Target   string
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// Classify assigns a strategy to p, in priority order: configuration,
// companion DAO, typed persistence object, nested service, principal,
// utility, plain.
func Classify(reg *typeinfo.Registry, p typeinfo.Param) Slot {
	slot := Slot{Param: p, Strategy: StrategyPlain}
	untyped := p.Type == nil || p.Type == anyType

	switch {
	case p.Type == structure.ConfigType || (untyped && p.Name == ParamConfig):
		slot.Strategy = StrategyConfig
		return slot
	case p.Type == structure.DAOType || (untyped && p.Name == ParamDAO):
		slot.Strategy = StrategyCompanionDAO
		return slot
	}

	if !untyped && p.IsObject() {
		name, _ := reg.NameOf(p.Type)
		slot.Target = name

		switch reg.KindOf(name) {
		case typeinfo.KindDAO:
			slot.Strategy = StrategyPersistence
			return slot
		case typeinfo.KindService:
			slot.Strategy = StrategyNestedService
			return slot
		}

		if p.Type.Implements(structure.UserType) {
			slot.Target = ""
			slot.Strategy = StrategyPrincipal
			return slot
		}

		slot.Strategy = StrategyUtility
		return slot
	}

	if untyped && p.Name == ParamUser {
		slot.Strategy = StrategyPrincipal
	}
	return slot
}
