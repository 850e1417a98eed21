package config

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/dshills/inicache/internal/config/notify"
	"github.com/dshills/inicache/internal/config/registry"
)

// consoleVariableSections are read from Engine in this order, so
// SystemSettings wins over ConsoleVariables.
var consoleVariableSections = []string{"ConsoleVariables", "SystemSettings"}

// LoadConsoleVariables applies the console variable sections of the cached
// Engine document to reg. Unknown names are skipped; invalid values leave
// the variable unchanged. It returns the number of variables set.
func (s *Store) LoadConsoleVariables(reg *registry.Registry) int {
	s.mustBeReady()
	applied := 0
	for _, section := range consoleVariableSections {
		s.ForEachEntry(section, "Engine", func(key, value string) {
			err := reg.Set(key, value, section)
			switch {
			case err == nil:
				applied++
			case errors.Is(err, registry.ErrVariableNotFound):
				log.WithFields(logrus.Fields{
					"section":  section,
					"variable": key,
				}).Debug("Ignoring unknown console variable")
			default:
				log.WithError(err).WithFields(logrus.Fields{
					"section":  section,
					"variable": key,
					"value":    value,
				}).Debug("Ignoring invalid console variable value")
			}
		})
	}
	return applied
}

// Subscribe registers an observer for every change in the store.
func (s *Store) Subscribe(observer notify.Observer) *notify.Subscription {
	s.mustBeReady()
	return s.notifier.Subscribe(observer)
}

// SubscribeSection registers an observer for one section of one document.
// Reloads of the document are delivered as well.
func (s *Store) SubscribeSection(name, section string, observer notify.Observer) *notify.Subscription {
	s.mustBeReady()
	return s.notifier.SubscribeSection(s.displayName(name), section, observer)
}
