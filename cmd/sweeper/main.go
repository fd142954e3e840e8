package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/workpulse-hr/schedule-engine/internal/config"
	appHTTP "github.com/workpulse-hr/schedule-engine/internal/handler/http"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/cron"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/database"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/jwt"
	"github.com/workpulse-hr/schedule-engine/internal/repository/postgresql"
	"github.com/workpulse-hr/schedule-engine/internal/service/resolver"
	"github.com/workpulse-hr/schedule-engine/internal/service/sweep"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	templateRepo := postgresql.NewTemplateRepository(db)
	assignmentRepo := postgresql.NewAssignmentRepository(db)
	overrideRepo := postgresql.NewOverrideRepository(db)
	absenceRepo := postgresql.NewAbsenceRepository(db)
	settingsRepo := postgresql.NewSettingsRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	timeEntryRepo := postgresql.NewTimeEntryRepository(db)
	summaryRepo := postgresql.NewWorkdaySummaryRepository(db)
	onCallRepo := postgresql.NewOnCallRepository(db)
	alertRepo := postgresql.NewAlertRepository(db)
	authorizationRepo := postgresql.NewAuthorizationRepository(db)
	timeBankRepo := postgresql.NewTimeBankRepository(db)

	resolverService := resolver.NewService(resolver.Stores{
		Templates:   templateRepo,
		Assignments: assignmentRepo,
		Overrides:   overrideRepo,
		Absences:    absenceRepo,
		Holidays:    holidayRepo,
	})
	sweepService := sweep.NewService(resolverService, sweep.Stores{
		Settings:       settingsRepo,
		Entries:        timeEntryRepo,
		Summaries:      summaryRepo,
		OnCall:         onCallRepo,
		Alerts:         alertRepo,
		Authorizations: authorizationRepo,
		TimeBank:       timeBankRepo,
	}, nil)

	jwtService := jwt.NewService(cfg.Auth.JWTSecret, 24*time.Hour)
	fence := cron.NewFence(cfg.Sweep.FenceWindow)

	scheduler := cron.NewScheduler()
	sweepJobs := cron.NewSweepJobs(sweepService, settingsRepo, fence)
	sweepJobs.Register(scheduler, cfg.Sweep.DailyInterval, cfg.Sweep.WeeklyInterval)
	scheduler.Start()
	defer scheduler.Stop()

	scheduleHandler := appHTTP.NewScheduleHandler(resolverService)
	sweepHandler := appHTTP.NewSweepHandler(sweepService, fence)
	alertHandler := appHTTP.NewAlertHandler(alertRepo)

	router := appHTTP.NewRouter(cfg.App.Env, jwtService, scheduleHandler, sweepHandler, alertHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
