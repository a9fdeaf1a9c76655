package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"backend_firerms/api"
	"backend_firerms/config"
	"backend_firerms/database"
	"backend_firerms/middleware"
	"backend_firerms/services"
)

// initDB инициализирует подключение к базе данных
func initDB() {
	log.Println("🔧 Инициализация базы данных...")

	// Создаем базу данных, если она не существует
	if err := database.CreateDatabaseIfNotExists(); err != nil {
		log.Fatal("❌ Ошибка при создании базы данных:", err)
	}

	// Подключаемся к базе данных
	if err := database.ConnectDatabase(); err != nil {
		log.Fatal("❌ Ошибка подключения к базе данных:", err)
	}

	// Индексы для тяжелых выборок
	if err := database.CreatePerformanceIndexes(database.GetDB()); err != nil {
		log.Printf("⚠️  Ошибка при создании индексов: %v", err)
	}

	log.Println("✅ База данных успешно инициализирована")
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("❌ Ошибка загрузки конфигурации:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Некорректная конфигурация:", err)
	}
	cfg.LogConfig()

	// Инициализируем базу данных
	initDB()

	// Redis не обязателен: без него кэширование и лимиты отключаются
	if err := database.InitRedis(); err != nil {
		log.Printf("⚠️  Redis недоступен, кэширование отключено: %v", err)
	}

	db := database.GetDB()
	logger := log.New(os.Stdout, "[firerms] ", log.LstdFlags)

	// Сервисы
	auditService := services.NewAuditService(db, logger)
	checkoutService := services.NewCheckoutService(db, auditService)
	compartmentService := services.NewCompartmentService(db, auditService)
	inventoryService := services.NewInventoryService(db, auditService)
	cacheService := services.NewCacheService(database.GetRedis(), logger)
	notificationService := services.NewNotificationService(
		cfg.External.TelegramBotToken, cfg.External.TelegramChatID, logger)
	complianceService := services.NewComplianceService(db, notificationService)
	reportService := services.NewReportService(db)

	// Периодические проверки сроков СИЗ и запасов
	schedulerService := services.NewSchedulerService(complianceService)
	if err := schedulerService.Start(); err != nil {
		log.Printf("⚠️  Ошибка запуска планировщика: %v", err)
	}
	defer schedulerService.Stop()

	// API
	assetAPI := api.NewAssetAPI(db, checkoutService, auditService, cacheService)
	apparatusAPI := api.NewApparatusAPI(db, compartmentService, cacheService)
	consumableAPI := api.NewConsumableAPI(db, inventoryService, auditService)
	personnelAPI := api.NewPersonnelAPI(db, auditService)
	incidentAPI := api.NewIncidentAPI(db, auditService)
	propertyAPI := api.NewPropertyAPI(db)
	scheduleAPI := api.NewScheduleAPI(db)
	portalAPI := api.NewPortalAPI(db, notificationService)
	alertAPI := api.NewAlertAPI(db)
	dashboardAPI := api.NewDashboardAPI(db, cacheService, auditService)
	reportAPI := api.NewReportAPI(reportService)
	userAPI := api.NewUserAPI(db)

	authMiddleware := middleware.NewAuthMiddleware()

	// Настраиваем Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowMethods = cfg.CORS.AllowedMethods
	corsConfig.AllowHeaders = cfg.CORS.AllowedHeaders
	corsConfig.AllowCredentials = cfg.CORS.AllowCredentials
	r.Use(cors.New(corsConfig))

	// Базовые роуты
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "success",
			"message":  "pong",
			"database": "connected",
		})
	})

	// Публичный портал: подача обращений ограничена по частоте
	portalRateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Requests:     cfg.Security.PortalRateLimitRequests,
		Window:       cfg.Security.PortalRateLimitWindow,
		KeyGenerator: middleware.PortalKeyGenerator,
	})
	public := r.Group("/api/portal")
	{
		public.POST("/requests", portalRateLimit, portalAPI.SubmitRequest)
		public.GET("/requests/:tracking_number", portalAPI.TrackRequest)
	}

	// Служебные роуты требуют авторизации
	protected := r.Group("/api")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Имущество
		assets := protected.Group("/assets")
		{
			assets.POST("", assetAPI.CreateAsset)
			assets.GET("", assetAPI.GetAssets)
			assets.GET("/:id", assetAPI.GetAsset)
			assets.PUT("/:id", assetAPI.UpdateAsset)
			assets.DELETE("/:id", assetAPI.RetireAsset)
			assets.POST("/:id/checkout", assetAPI.CheckoutAsset)
			assets.POST("/:id/checkin", assetAPI.CheckinAsset)
			assets.GET("/:id/history", assetAPI.GetAssetHistory)
			assets.POST("/:id/maintenance", assetAPI.AddMaintenanceRecord)
			assets.POST("/:id/inspections", assetAPI.AddInspectionRecord)
			assets.POST("/:id/kit-items", assetAPI.AddKitItem)
			assets.DELETE("/:id/kit-items/:item_id", assetAPI.RemoveKitItem)
		}

		// Техника и отсеки
		apparatus := protected.Group("/apparatus")
		{
			apparatus.POST("", apparatusAPI.CreateApparatus)
			apparatus.GET("", apparatusAPI.GetApparatusList)
			apparatus.GET("/map", apparatusAPI.GetMapPositions)
			apparatus.GET("/:id", apparatusAPI.GetApparatus)
			apparatus.PUT("/:id", apparatusAPI.UpdateApparatus)
			apparatus.DELETE("/:id", apparatusAPI.DeleteApparatus)
			apparatus.PUT("/:id/compartments", apparatusAPI.ReplaceCompartments)
			apparatus.POST("/:id/compartments", apparatusAPI.AddCompartment)
		}
		protected.DELETE("/compartments/:compartment_id", apparatusAPI.DeleteCompartment)
		protected.POST("/compartments/:compartment_id/assign", apparatusAPI.AssignAssetToCompartment)
		protected.POST("/compartments/unassign", apparatusAPI.UnassignAsset)
		protected.GET("/sub-compartments/:sub_id/contents", apparatusAPI.GetSubCompartmentContents)

		// Расходные материалы и сверка
		consumables := protected.Group("/consumables")
		{
			consumables.POST("", consumableAPI.CreateConsumable)
			consumables.GET("", consumableAPI.GetConsumables)
			consumables.GET("/:id", consumableAPI.GetConsumable)
			consumables.PUT("/:id", consumableAPI.UpdateConsumable)
			consumables.DELETE("/:id", consumableAPI.DeleteConsumable)
			consumables.POST("/:id/usage", consumableAPI.LogUsage)
			consumables.GET("/:id/usage", consumableAPI.GetUsageHistory)
		}
		inventoryAudit := protected.Group("/inventory/audit")
		{
			inventoryAudit.POST("/start", consumableAPI.StartAuditSession)
			inventoryAudit.GET("/session", consumableAPI.GetAuditSession)
			inventoryAudit.POST("/scan", consumableAPI.RecordScan)
			inventoryAudit.POST("/finish", consumableAPI.FinishAudit)
			inventoryAudit.POST("/reconcile", consumableAPI.ReconcileAudit)
		}

		// Личный состав
		personnel := protected.Group("/personnel")
		{
			personnel.POST("", personnelAPI.CreatePersonnel)
			personnel.GET("", personnelAPI.GetPersonnelList)
			personnel.GET("/:id", personnelAPI.GetPersonnel)
			personnel.PUT("/:id", personnelAPI.UpdatePersonnel)
			personnel.DELETE("/:id", personnelAPI.DeletePersonnel)
			personnel.POST("/:id/certifications", personnelAPI.AddCertification)
			personnel.DELETE("/:id/certifications/:cert_id", personnelAPI.DeleteCertification)
		}

		// Выезды
		incidents := protected.Group("/incidents")
		{
			incidents.POST("", incidentAPI.CreateIncident)
			incidents.GET("", incidentAPI.GetIncidents)
			incidents.GET("/stats", incidentAPI.GetIncidentStats)
			incidents.GET("/:id", incidentAPI.GetIncident)
			incidents.PUT("/:id", incidentAPI.UpdateIncident)
			incidents.POST("/:id/close", incidentAPI.CloseIncident)
			incidents.POST("/:id/reopen", incidentAPI.ReopenIncident)
			incidents.PUT("/:id/apparatus", incidentAPI.SetRespondingUnits)
			incidents.PUT("/:id/personnel", incidentAPI.SetRespondingPersonnel)
		}

		// Объекты и гидранты
		properties := protected.Group("/properties")
		{
			properties.POST("", propertyAPI.CreateProperty)
			properties.GET("", propertyAPI.GetProperties)
			properties.GET("/:id", propertyAPI.GetProperty)
			properties.PUT("/:id", propertyAPI.UpdateProperty)
			properties.DELETE("/:id", propertyAPI.DeleteProperty)
		}
		hydrants := protected.Group("/hydrants")
		{
			hydrants.POST("", propertyAPI.CreateHydrant)
			hydrants.GET("", propertyAPI.GetHydrants)
			hydrants.PUT("/:id", propertyAPI.UpdateHydrant)
			hydrants.DELETE("/:id", propertyAPI.DeleteHydrant)
		}
		protected.GET("/map/features", propertyAPI.GetMapFeatures)

		// График дежурств
		schedule := protected.Group("/schedule")
		{
			schedule.POST("", scheduleAPI.CreateShiftEntry)
			schedule.GET("", scheduleAPI.GetSchedule)
			schedule.GET("/roster", scheduleAPI.GetRoster)
			schedule.PUT("/:id", scheduleAPI.UpdateShiftEntry)
			schedule.DELETE("/:id", scheduleAPI.DeleteShiftEntry)
		}

		// Обращения с портала (служебная сторона)
		portalRequests := protected.Group("/portal-requests")
		{
			portalRequests.GET("", portalAPI.GetRequests)
			portalRequests.GET("/:id", portalAPI.GetRequest)
			portalRequests.PUT("/:id/status", portalAPI.UpdateRequestStatus)
		}

		// Уведомления
		alerts := protected.Group("/alerts")
		{
			alerts.GET("", alertAPI.GetAlerts)
			alerts.POST("/:id/acknowledge", alertAPI.AcknowledgeAlert)
			alerts.POST("/:id/resolve", alertAPI.ResolveAlert)
		}

		// Дашборд и отчеты
		protected.GET("/dashboard/stats", dashboardAPI.GetStats)
		protected.GET("/dashboard/activity", dashboardAPI.GetRecentActivity)
		protected.GET("/reports/inventory", reportAPI.ExportInventory)
		protected.GET("/reports/incidents", reportAPI.ExportIncidents)

		// Учетные записи доступны только администратору
		users := protected.Group("/users")
		users.Use(authMiddleware.RequireRole("admin"))
		{
			users.POST("", userAPI.CreateUser)
			users.GET("", userAPI.GetUsers)
			users.GET("/:id", userAPI.GetUser)
			users.PUT("/:id", userAPI.UpdateUser)
			users.PUT("/:id/password", userAPI.ChangePassword)
			users.DELETE("/:id", userAPI.DeactivateUser)
		}
	}

	log.Printf("🚀 Сервер запущен на порту %s", cfg.App.Port)
	if err := r.Run(":" + cfg.App.Port); err != nil {
		log.Fatal("❌ Ошибка запуска сервера:", err)
	}
}
