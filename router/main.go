package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/schoolpulse/api/database"
	"github.com/schoolpulse/api/handlers"
	attendance_handlers "github.com/schoolpulse/api/handlers/attendance"
	auth_handlers "github.com/schoolpulse/api/handlers/auth"
	grade_handlers "github.com/schoolpulse/api/handlers/grade"
	notification_handlers "github.com/schoolpulse/api/handlers/notification"
	parent_handlers "github.com/schoolpulse/api/handlers/parent"
	report_handlers "github.com/schoolpulse/api/handlers/report"
	result_handlers "github.com/schoolpulse/api/handlers/result"
	student_handlers "github.com/schoolpulse/api/handlers/student"
	subject_handlers "github.com/schoolpulse/api/handlers/subject"
	teacher_handlers "github.com/schoolpulse/api/handlers/teacher"
	test_handlers "github.com/schoolpulse/api/handlers/test"
	user_handlers "github.com/schoolpulse/api/handlers/user"
	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils"
	"github.com/schoolpulse/api/utils/auth"
	"github.com/schoolpulse/api/utils/cache"
	"github.com/schoolpulse/api/utils/middleware"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "schoolpulse-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis backs brute force protection and the notification cache;
	// both degrade gracefully when it is unreachable.
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	blacklistService := auth.NewBlacklistService(db)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Services
	accountService := services.NewAccountService(db)
	subjectService := services.NewSubjectService(db)
	gradeService := services.NewGradeService(db)
	testService := services.NewTestService(db)
	resultService := services.NewResultService(db)
	attendanceService := services.NewAttendanceService(db)
	reportService := services.NewReportService(db)
	notificationService := services.NewNotificationService(db, redisCache)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, blacklistService, bruteForceProtection, accountService)
	userHandler := user_handlers.NewUserHandler(db, accountService)
	studentHandler := student_handlers.NewStudentHandler(db, accountService, reportService)
	teacherHandler := teacher_handlers.NewTeacherHandler(db, subjectService, testService)
	parentHandler := parent_handlers.NewParentHandler(db, accountService)
	subjectHandler := subject_handlers.NewSubjectHandler(db, subjectService)
	gradeHandler := grade_handlers.NewGradeHandler(gradeService)
	testHandler := test_handlers.NewTestHandler(testService, resultService)
	resultHandler := result_handlers.NewResultHandler(resultService)
	attendanceHandler := attendance_handlers.NewAttendanceHandler(attendanceService)
	notificationHandler := notification_handlers.NewNotificationHandler(notificationService)
	reportHandler := report_handlers.NewReportHandler(reportService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:4200"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Role sets used across the route table.
	staff := []model.Role{model.RoleAdmin, model.RoleTeacher}

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/refresh", authHandler.Refresh)

	// Protected auth routes
	authGroup.Get("/me", authMiddleware.Required(), authHandler.Me)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Users routes (account management is admin territory)
	users := api.Group("/users", authMiddleware.Required())
	users.Get("/", userHandler.ListUsers)
	users.Get("/search", userHandler.SearchUsers)
	users.Get("/:id", userHandler.GetUser)
	users.Post("/", authMiddleware.RequireAdmin(), userHandler.CreateUser)
	users.Put("/:id", authMiddleware.RequireAdmin(), userHandler.UpdateUser)
	users.Delete("/:id", authMiddleware.RequireAdmin(), userHandler.DeleteUser)

	// Students routes
	students := api.Group("/students", authMiddleware.Required())
	students.Get("/", studentHandler.ListStudents)
	students.Get("/without-parents", studentHandler.StudentsWithoutParent)
	students.Get("/:id", studentHandler.GetStudent)
	students.Put("/:id", authMiddleware.RequireAdmin(), studentHandler.UpdateStudent)
	students.Put("/:id/parent", authMiddleware.RequireAdmin(), studentHandler.UpdateParent)
	students.Delete("/:id/parent", authMiddleware.RequireAdmin(), studentHandler.RemoveParent)
	students.Get("/:id/performance", studentHandler.Performance)
	students.Get("/:id/report", studentHandler.Report)

	// Result sub-routes under students
	students.Get("/:student_id/results", resultHandler.StudentResults)
	students.Put("/:student_id/results/:id", authMiddleware.RequireRole(staff...), resultHandler.UpdateResult)
	students.Delete("/:student_id/results/:id", authMiddleware.RequireRole(staff...), resultHandler.DeleteResult)

	// Teachers routes
	teachers := api.Group("/teachers", authMiddleware.Required())
	teachers.Get("/", teacherHandler.ListTeachers)
	teachers.Get("/:id", teacherHandler.GetTeacher)
	teachers.Get("/:id/subjects", teacherHandler.TeacherSubjects)
	teachers.Get("/:id/tests", teacherHandler.TeacherTests)

	// Parents routes
	parents := api.Group("/parents", authMiddleware.Required())
	parents.Get("/", parentHandler.ListParents)
	parents.Get("/:id", parentHandler.GetParent)
	parents.Get("/:id/children", parentHandler.Children)
	parents.Delete("/:id", authMiddleware.RequireAdmin(), parentHandler.DeleteParent)

	// Subjects routes
	subjects := api.Group("/subjects", authMiddleware.Required())
	subjects.Get("/", subjectHandler.ListSubjects)
	subjects.Get("/:id", subjectHandler.GetSubject)
	subjects.Post("/", authMiddleware.RequireAdmin(), subjectHandler.CreateSubject)
	subjects.Put("/:id", authMiddleware.RequireAdmin(), subjectHandler.UpdateSubject)
	subjects.Delete("/:id", authMiddleware.RequireAdmin(), subjectHandler.DeleteSubject)
	subjects.Get("/:id/teachers", subjectHandler.SubjectTeachers)
	subjects.Post("/:id/teachers", authMiddleware.RequireAdmin(), subjectHandler.AssignTeacher)
	subjects.Delete("/:id/teachers/:teacher_id", authMiddleware.RequireAdmin(), subjectHandler.RemoveTeacher)

	// Grades routes
	grades := api.Group("/grades", authMiddleware.Required())
	grades.Get("/", gradeHandler.ListGrades)
	grades.Get("/:id", gradeHandler.GetGrade)
	grades.Post("/", authMiddleware.RequireAdmin(), gradeHandler.CreateGrade)
	grades.Put("/:id", authMiddleware.RequireAdmin(), gradeHandler.UpdateGrade)
	grades.Delete("/:id", authMiddleware.RequireAdmin(), gradeHandler.DeleteGrade)

	// Tests routes
	tests := api.Group("/tests", authMiddleware.Required())
	tests.Get("/", testHandler.ListTests)
	tests.Get("/:id", testHandler.GetTest)
	tests.Get("/:id/results", testHandler.TestResults)
	tests.Post("/", authMiddleware.RequireRole(staff...), testHandler.CreateTest)
	tests.Put("/:id", authMiddleware.RequireRole(staff...), testHandler.UpdateTest)
	tests.Delete("/:id", authMiddleware.RequireRole(staff...), testHandler.DeleteTest)

	// Results routes (flat write endpoints)
	results := api.Group("/results", authMiddleware.Required())
	results.Post("/", authMiddleware.RequireRole(staff...), resultHandler.CreateResult)
	results.Put("/", authMiddleware.RequireRole(staff...), resultHandler.UpsertResult)

	// Attendance routes
	attendance := api.Group("/attendance", authMiddleware.Required())
	attendance.Get("/", attendanceHandler.ListAttendance)
	attendance.Get("/by-date/:date", attendanceHandler.ByDate)
	attendance.Get("/statistics/:student_id", attendanceHandler.Statistics)
	attendance.Get("/months/:student_id", attendanceHandler.AvailableMonths)
	attendance.Post("/", authMiddleware.RequireRole(staff...), attendanceHandler.MarkAttendance)
	attendance.Post("/bulk", authMiddleware.RequireRole(staff...), attendanceHandler.BulkMarkAttendance)
	attendance.Put("/:id", authMiddleware.RequireRole(staff...), attendanceHandler.UpdateAttendance)
	attendance.Delete("/:id", authMiddleware.RequireRole(staff...), attendanceHandler.DeleteAttendance)

	// Notifications routes
	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.ListNotifications)
	notifications.Get("/unread-count/:student_id", notificationHandler.UnreadCount)
	notifications.Get("/:id", notificationHandler.GetNotification)
	notifications.Post("/", authMiddleware.RequireRole(staff...), notificationHandler.CreateNotification)
	notifications.Put("/read-all/:student_id", notificationHandler.MarkAllRead)
	notifications.Put("/:id/read", notificationHandler.MarkRead)
	notifications.Delete("/:id", authMiddleware.RequireRole(staff...), notificationHandler.DeleteNotification)

	// Reports routes
	reports := api.Group("/reports", authMiddleware.Required())
	reports.Get("/performance", reportHandler.OverallPerformance)
	reports.Get("/subjects/:subject_id", reportHandler.SubjectPerformance)
	reports.Get("/attendance", reportHandler.AttendanceReport)
	reports.Get("/class/:class", authMiddleware.RequireRole(staff...), reportHandler.ClassReport)
	reports.Get("/top-performers", reportHandler.TopPerformers)
	reports.Get("/struggling", reportHandler.StrugglingStudents)
}
