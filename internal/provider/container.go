package provider

import (
	"github.com/nexusorbital-promo/internal/cache"
	"github.com/nexusorbital-promo/internal/config"
	"github.com/nexusorbital-promo/internal/logger"
	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/queue"
	"github.com/nexusorbital-promo/internal/repository"
	"github.com/nexusorbital-promo/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo       repository.AdminRepository
	PromotionRepo   repository.PromotionRepository
	CouponRepo      repository.CouponRepository
	CouponUsageRepo repository.CouponUsageRepository
	OrderRepo       repository.OrderRepository
	PaymentRepo     repository.PaymentRepository
	MembershipRepo  repository.MembershipRepository

	// Services
	AuthService           *service.AuthService
	PromotionService      *service.PromotionService
	PromotionAdminService *service.PromotionAdminService
	CouponService         *service.CouponService
	CouponAdminService    *service.CouponAdminService
	OrderService          *service.OrderService
	PaymentService        *service.PaymentService
	MembershipService     *service.MembershipService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.PromotionRepo = repository.NewPromotionRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.CouponUsageRepo = repository.NewCouponUsageRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.MembershipRepo = repository.NewMembershipRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.PromotionService = service.NewPromotionService(c.PromotionRepo)
	c.PromotionAdminService = service.NewPromotionAdminService(c.PromotionRepo, c.CouponRepo)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.PromotionRepo, c.CouponUsageRepo)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo, c.PromotionRepo, c.CouponUsageRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.MembershipRepo, c.CouponService)
	c.PaymentService = service.NewPaymentService(
		c.OrderRepo,
		c.PaymentRepo,
		c.CouponService,
		c.QueueClient,
		&c.Config.Payment,
		c.Config.Order.ExpireMinutes,
	)
	c.MembershipService = service.NewMembershipService(c.MembershipRepo, c.OrderRepo)
}
