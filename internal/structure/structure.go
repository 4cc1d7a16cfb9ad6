// Package structure holds the capability markers of resolvable types and the
// DefaultService base that application services embed.
package structure

import (
	"reflect"
	"sync"

	"github.com/xraph/cohesion/internal/auth"
	"github.com/xraph/cohesion/internal/config"
	"github.com/xraph/cohesion/internal/errors"
	"github.com/xraph/cohesion/internal/typeinfo"
)

// DefaultServiceName is the registered name of DefaultService.
const DefaultServiceName = "structure.DefaultService"

// DAO is the generic persistence capability. A service constructor that
// declares a DAO parameter receives its companion persistence object.
// Persistence types implement it by embedding BaseDAO.
type DAO interface {
	isDAO()
}

// BaseDAO is embedded by persistence types.
type BaseDAO struct{}

func (BaseDAO) isDAO() {}

// Capability types, used when classifying constructor parameters.
var (
	DAOType    = reflect.TypeOf((*DAO)(nil)).Elem()
	ConfigType = reflect.TypeOf((*config.Config)(nil))
	UserType   = reflect.TypeOf((*auth.User)(nil)).Elem()
)

// DefaultService carries the application configuration, the companion DAO and
// the acting user. Services embed *DefaultService and register with
// typeinfo.Extends(DefaultServiceName) to inherit its constructor.
type DefaultService struct {
	config *config.Config
	dao    DAO
	user   auth.User
	admin  auth.User
	mu     sync.RWMutex
}

// NewDefaultService creates the base service.
func NewDefaultService(cfg *config.Config, dao DAO, user auth.User) *DefaultService {
	s := &DefaultService{config: cfg, dao: dao}
	// cannot fail: no user is set yet
	_ = s.SetUser(user)
	return s
}

// Config returns the application configuration.
func (s *DefaultService) Config() *config.Config {
	return s.config
}

// DAO returns the companion persistence object.
func (s *DefaultService) DAO() DAO {
	return s.dao
}

// User returns the acting user.
func (s *DefaultService) User() auth.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// IsAdmin reports whether the service was first bound to an admin.
func (s *DefaultService) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin != nil
}

// SetUser binds the acting user. The first user sticks unless it was an
// admin, who may act as anyone afterwards. Setting the current user again is
// a no-op and a nil user is ignored.
func (s *DefaultService) SetUser(user auth.User) error {
	if user == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.user == nil:
		if user.IsAdmin() {
			s.admin = user
		}
		s.user = user
	case auth.SameUser(s.user, user):
	case s.admin != nil:
		s.user = user
	default:
		return errors.ErrUnauthorized("only admins can set the user")
	}
	return nil
}

// Register adds DefaultService to reg as an abstract service base.
func Register(reg *typeinfo.Registry) error {
	return reg.Register(DefaultServiceName, NewDefaultService,
		typeinfo.AsService(),
		typeinfo.Abstract(),
		typeinfo.OptionalArg("config", nil),
		typeinfo.OptionalArg("dao", nil),
		typeinfo.OptionalArg("user", nil),
	)
}
