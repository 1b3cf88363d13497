package ports

import (
	"browsercov/domain/usage"
)

// ExportReader produces the raw rows of one analytics export
type ExportReader interface {
	Name() string
	ReadData() (*usage.Export, error)
}

// RulesSource provides the vendor rule table used during aggregation
type RulesSource interface {
	LoadRules() (usage.Rules, error)
}
