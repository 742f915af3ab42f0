package capability_refresh

import (
	"context"
	"fmt"

	"fleet-ng/models/maintdb"
	"fleet-ng/server/portal/internal/service"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Refresher 资产能力状态对账任务
// 逐资产按活跃限制记录重算最差能力状态，修正漏算或脏数据
type Refresher struct {
	db          *gorm.DB
	limitations *service.LimitationService
	logger      *zap.Logger
}

// NewRefresher 创建能力状态对账任务
func NewRefresher(db *gorm.DB, logger *zap.Logger) *Refresher {
	return &Refresher{
		db:          db,
		limitations: service.NewLimitationService(db, logger),
		logger:      logger,
	}
}

// Run 对全部资产执行能力状态重算
func (r *Refresher) Run(ctx context.Context) error {
	var assetIDs []int64
	if err := r.db.WithContext(ctx).Model(&maintdb.Asset{}).Pluck("id", &assetIDs).Error; err != nil {
		return fmt.Errorf("failed to list assets: %w", err)
	}

	r.logger.Info("starting capability status refresh", zap.Int("assetCount", len(assetIDs)))

	var failed int
	for _, assetID := range assetIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.limitations.RefreshCapabilityStatus(assetID); err != nil {
			failed++
			r.logger.Error("failed to refresh capability status",
				zap.Int64("assetID", assetID), zap.Error(err))
		}
	}

	if failed > 0 {
		return fmt.Errorf("capability refresh finished with %d failures out of %d assets", failed, len(assetIDs))
	}
	r.logger.Info("capability status refresh complete", zap.Int("assetCount", len(assetIDs)))
	return nil
}
