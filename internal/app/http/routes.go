package routes

import (
	"net/http"

	adminapi "academy-api/internal/api/admin"
	billingapi "academy-api/internal/api/billing"
	coursesapi "academy-api/internal/api/courses"
	insuranceapi "academy-api/internal/api/insurance"
	stripewebhooks "academy-api/internal/api/stripewebhook"
	subscriptionsapi "academy-api/internal/api/subscriptions"
	tiersapi "academy-api/internal/api/tiers"
	usersapi "academy-api/internal/api/users"
	"academy-api/internal/app/http/middleware"
	"academy-api/internal/domain/access"
	"academy-api/internal/domain/billing"
	"academy-api/internal/domain/courses"
	"academy-api/internal/domain/insurance"
	"academy-api/internal/domain/subscriptions"
	"academy-api/internal/domain/tiers"
	"academy-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

// Deps are the services the HTTP surface is wired to.
type Deps struct {
	Log                 *logger.Logger
	JWTSecret           string
	StripeWebhookSecret string

	Catalog       *tiers.Catalog
	Subscriptions *subscriptions.Service
	Access        *access.Evaluator
	Courses       *courses.Service
	Payments      *billing.Bridge
	Insurance     *insurance.Service
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	RegisterValidators()

	tiersH := tiersapi.NewHandler(d.Catalog, d.Log)
	subsH := subscriptionsapi.NewHandler(d.Subscriptions, d.Log)
	coursesH := coursesapi.NewHandler(d.Courses, d.Log)
	billingH := billingapi.NewHandler(d.Payments, d.Log)
	insuranceH := insuranceapi.NewHandler(d.Insurance, d.Log)
	usersH := usersapi.NewHandler(d.Subscriptions, d.Courses, d.Log)
	adminH := adminapi.NewHandler(d.Subscriptions, d.Courses, d.Payments, d.Insurance, d.Log)
	webhookH := stripewebhooks.NewHandler(d.Payments, d.StripeWebhookSecret, d.Log)

	// Raw body is needed for signature verification.
	r.POST("/webhook/stripe", webhookH.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.GET("/tiers", tiersH.List)
	public.GET("/tiers/:id", tiersH.Get)
	public.GET("/courses", coursesH.List)
	public.GET("/courses/:id/curriculum", middleware.OptionalAuth(d.JWTSecret), coursesH.Curriculum)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(d.JWTSecret), middleware.SanitizeAndCleanInputMiddleware())

	auth.GET("/me", usersH.GetCurrentUser)

	auth.POST("/subscriptions", subsH.Subscribe)
	auth.GET("/subscriptions/me", subsH.Me)
	auth.GET("/subscriptions/history", subsH.History)
	auth.DELETE("/subscriptions/me", subsH.Cancel)

	auth.GET("/courses/:id", coursesH.Get)
	auth.POST("/courses/:id/enroll", coursesH.Enroll)
	auth.GET("/enrollments", coursesH.Enrollments)
	auth.GET("/courses/:id/lessons/:lessonId", coursesH.GetLesson)
	auth.PATCH("/lessons/:lessonId/progress", coursesH.UpdateProgress)
	auth.POST("/lessons/:lessonId/complete", coursesH.Complete)

	auth.GET("/payments", billingH.GetPaymentHistory)
	auth.GET("/payments/:id", billingH.GetPayment)
	auth.GET("/payments/subscription/:subscriptionId", billingH.GetSubscriptionPayments)

	// Insured tiers only
	insured := auth.Group("/insurance")
	insured.Use(middleware.RequireTierLevel(d.Access, tiers.LevelPremiumPlus))
	insured.GET("/policies", insuranceH.Policies)
	insured.GET("/policies/:id", insuranceH.Policy)
	insured.PATCH("/policies/:id/cancel", insuranceH.Cancel)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(d.JWTSecret), middleware.RequireRole("admin"))
	admin.GET("/stats", adminH.GetAdminStats)
	admin.POST("/subscriptions/:id/confirm-payment", adminH.ConfirmPayment)
	admin.POST("/subscriptions/:id/payment-failed", middleware.SanitizeAndCleanInputMiddleware(), adminH.PaymentFailed)
	admin.POST("/subscriptions/:id/expire", adminH.Expire)
	admin.GET("/insurance/policies", adminH.ListPolicies)
	admin.GET("/insurance/policies/pending", adminH.PendingPolicies)
	admin.GET("/insurance/statistics", adminH.InsuranceStatistics)
	admin.POST("/insurance/policies/:id/approve", adminH.ApprovePolicy)
	admin.POST("/insurance/policies/:id/reject", middleware.SanitizeAndCleanInputMiddleware(), adminH.RejectPolicy)

	content := admin.Group("/")
	content.Use(middleware.SanitizeRichTextMiddleware())
	content.POST("/courses", adminH.CreateCourse)
	content.POST("/courses/:id/modules", adminH.CreateModule)
	content.POST("/modules/:id/lessons", adminH.CreateLesson)
	content.PATCH("/courses/:id", adminH.UpdateCourse)
	content.POST("/courses/:id/publish", adminH.PublishCourse)
	content.POST("/courses/:id/archive", adminH.ArchiveCourse)
}
