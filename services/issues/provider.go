package issues

import (
	"github.com/citywatch/alerts/services/dispatch"
	"github.com/citywatch/alerts/services/logging"
	"github.com/citywatch/alerts/services/notify"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// ProvideService takes the trigger lazily: the trigger needs the notifier,
// which reads issues through this service.
func ProvideService(db *gorm.DB, logger *logging.Service) *Service {
	return NewService(db, nil, logger.Named("issues"))
}

func (s *Service) SetTrigger(trigger Trigger) {
	s.trigger = trigger
}

var Module = fx.Options(
	fx.Provide(
		ProvideService,
		func(s *Service) notify.IssueReader { return s },
	),
	fx.Invoke(func(s *Service, trigger *dispatch.Trigger) {
		s.SetTrigger(trigger)
	}),
)
