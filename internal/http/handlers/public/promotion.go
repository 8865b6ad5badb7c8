package public

import (
	"errors"
	"strconv"
	"time"

	"github.com/nexusorbital-promo/internal/http/response"
	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/service"

	"github.com/gin-gonic/gin"
)

// PublicPromotionView 公共活动响应结构
type PublicPromotionView struct {
	models.Promotion
	Status string `json:"status"`
}

// GetPromotions 获取当前生效的活动列表
func (h *Handler) GetPromotions(c *gin.Context) {
	now := time.Now()
	promotions, err := h.PromotionService.ListActive(c.Request.Context(), now)
	if err != nil {
		respondError(c, response.CodeInternal, "error.promotion_fetch_failed", err)
		return
	}

	views := make([]PublicPromotionView, 0, len(promotions))
	for _, promotion := range promotions {
		p := promotion
		views = append(views, PublicPromotionView{
			Promotion: p,
			Status:    service.EffectiveStatus(&p, now),
		})
	}
	response.Success(c, views)
}

// GetPromotion 获取活动详情
func (h *Handler) GetPromotion(c *gin.Context) {
	promotionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || promotionID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	promotion, err := h.PromotionService.GetByID(uint(promotionID))
	if err != nil {
		if errors.Is(err, service.ErrPromotionNotFound) {
			respondError(c, response.CodeNotFound, "error.promotion_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.promotion_fetch_failed", err)
		return
	}

	response.Success(c, PublicPromotionView{
		Promotion: *promotion,
		Status:    service.EffectiveStatus(promotion, time.Now()),
	})
}

// GetPlans 获取上架会员档位列表
func (h *Handler) GetPlans(c *gin.Context) {
	plans, err := h.MembershipService.ListPlans()
	if err != nil {
		respondError(c, response.CodeInternal, "error.plan_fetch_failed", err)
		return
	}
	response.Success(c, plans)
}

// GetPlan 获取档位详情
func (h *Handler) GetPlan(c *gin.Context) {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || planID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	plan, err := h.MembershipService.GetPlan(uint(planID))
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			respondError(c, response.CodeNotFound, "error.plan_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.plan_fetch_failed", err)
		return
	}
	response.Success(c, plan)
}
