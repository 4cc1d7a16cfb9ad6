package di

import (
	"strings"

	"github.com/xraph/cohesion/internal/config"
)

// NamingStrategy derives the companion persistence type of a service.
type NamingStrategy interface {
	CompanionDAO(service string) string
}

// NamingFunc adapts a function to NamingStrategy.
type NamingFunc func(service string) string

// CompanionDAO calls f.
func (f NamingFunc) CompanionDAO(service string) string {
	return f(service)
}

// AffixNaming strips the service prefix and suffix from a qualified service
// name and applies the persistence prefix and suffix to what remains.
type AffixNaming struct {
	ServicePrefix string
	ServiceSuffix string
	DAOPrefix     string
	DAOSuffix     string
}

// DefaultNaming maps app.WidgetService to app.WidgetDAO.
var DefaultNaming = AffixNaming{ServiceSuffix: "Service", DAOSuffix: "DAO"}

// NewAffixNaming reads application.class.prefix/suffix and
// data_access.class.prefix/suffix from the root configuration.
func NewAffixNaming(root *config.Config) AffixNaming {
	return AffixNaming{
		ServicePrefix: root.GetString("application.class.prefix"),
		ServiceSuffix: root.GetString("application.class.suffix"),
		DAOPrefix:     root.GetString("data_access.class.prefix"),
		DAOSuffix:     root.GetString("data_access.class.suffix"),
	}
}

// CompanionDAO derives the persistence type name.
func (n AffixNaming) CompanionDAO(service string) string {
	name := strings.TrimPrefix(service, n.ServicePrefix)
	name = strings.TrimSuffix(name, n.ServiceSuffix)
	return n.DAOPrefix + name + n.DAOSuffix
}
