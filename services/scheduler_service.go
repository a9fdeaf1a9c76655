package services

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// SchedulerService запускает периодические проверки по расписанию
type SchedulerService struct {
	compliance *ComplianceService
	cron       *cron.Cron
}

// NewSchedulerService создает новый экземпляр SchedulerService
func NewSchedulerService(compliance *ComplianceService) *SchedulerService {
	c := cron.New(cron.WithSeconds())
	return &SchedulerService{
		compliance: compliance,
		cron:       c,
	}
}

// Start регистрирует задания и запускает планировщик
func (ss *SchedulerService) Start() error {
	// Полная проверка сроков СИЗ и запасов каждое утро в 06:00
	if _, err := ss.cron.AddFunc("0 0 6 * * *", func() {
		ss.compliance.RunPeriodicChecks()
	}); err != nil {
		return fmt.Errorf("failed to schedule compliance checks: %w", err)
	}

	// Остатки проверяются чаще: расход идет в течение всей смены
	if _, err := ss.cron.AddFunc("0 0 */4 * * *", func() {
		if err := ss.compliance.CheckLowStock(); err != nil {
			log.Printf("Ошибка при проверке остатков: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule stock checks: %w", err)
	}

	ss.cron.Start()
	log.Println("Планировщик проверок запущен")
	return nil
}

// Stop останавливает планировщик
func (ss *SchedulerService) Stop() {
	ss.cron.Stop()
	log.Println("Планировщик проверок остановлен")
}
