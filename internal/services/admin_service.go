package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/backendkit/backendkit/internal/config"
	"github.com/backendkit/backendkit/internal/models"
)

const growthWindowDays = 30

type RevenueByPlan struct {
	Starter float64
	Pro     float64
}

// DailyCount is the number of signups on one UTC day (YYYY-MM-DD).
type DailyCount struct {
	Date  string
	Count int64
}

type PlatformMetrics struct {
	TotalTenants        int64
	TotalUsers          int64
	ActiveSubscriptions int64
	MRR                 float64
	NewUsersLast30Days  int64
	ChurnRate           float64
	RevenueByPlan       RevenueByPlan
	UserGrowth          []DailyCount
}

// AdminService computes platform-wide reports. Reads only.
type AdminService struct {
	db     *gorm.DB
	prices config.PriceTable
	now    func() time.Time
}

func NewAdminService(db *gorm.DB, prices config.PriceTable) *AdminService {
	return &AdminService{db: db, prices: prices, now: time.Now}
}

func (s *AdminService) Metrics(ctx context.Context) (*PlatformMetrics, error) {
	now := s.now().UTC()
	windowStart := startOfDay(now).AddDate(0, 0, -(growthWindowDays - 1))
	newUsersSince := now.AddDate(0, 0, -growthWindowDays)

	var (
		m             PlatformMetrics
		activePrices  []string
		totalSubs     int64
		canceledSubs  int64
		signupsByTime []time.Time
	)

	g, gctx := errgroup.WithContext(ctx)
	db := s.db.WithContext(gctx)

	g.Go(func() error {
		return db.Model(&models.Tenant{}).Count(&m.TotalTenants).Error
	})
	g.Go(func() error {
		return db.Model(&models.User{}).Count(&m.TotalUsers).Error
	})
	g.Go(func() error {
		return db.Model(&models.Subscription{}).
			Where("status = ?", models.SubscriptionActive).
			Pluck("stripe_price_id", &activePrices).Error
	})
	g.Go(func() error {
		return db.Model(&models.User{}).Where("created_at >= ?", newUsersSince).Count(&m.NewUsersLast30Days).Error
	})
	g.Go(func() error {
		return db.Model(&models.Subscription{}).Count(&totalSubs).Error
	})
	g.Go(func() error {
		return db.Model(&models.Subscription{}).Where("cancel_at_period_end = ?", true).Count(&canceledSubs).Error
	})
	g.Go(func() error {
		var rows []struct{ CreatedAt time.Time }
		if err := db.Model(&models.User{}).Select("created_at").Where("created_at >= ?", windowStart).Find(&rows).Error; err != nil {
			return err
		}
		signupsByTime = make([]time.Time, len(rows))
		for i, r := range rows {
			signupsByTime[i] = r.CreatedAt
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute metrics: %w", err)
	}

	m.ActiveSubscriptions = int64(len(activePrices))
	for _, priceID := range activePrices {
		plan, ok := s.prices[priceID]
		if !ok {
			continue
		}
		m.MRR += plan.Amount
		switch plan.Name {
		case "starter":
			m.RevenueByPlan.Starter += plan.Amount
		case "pro":
			m.RevenueByPlan.Pro += plan.Amount
		}
	}
	m.MRR = roundCents(m.MRR)
	m.RevenueByPlan.Starter = roundCents(m.RevenueByPlan.Starter)
	m.RevenueByPlan.Pro = roundCents(m.RevenueByPlan.Pro)

	if totalSubs > 0 {
		m.ChurnRate = roundCents(float64(canceledSubs) / float64(totalSubs) * 100)
	}
	m.UserGrowth = dailyBuckets(windowStart, growthWindowDays, signupsByTime)

	return &m, nil
}

// Users returns every user with its tenant, newest first.
func (s *AdminService) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Preload("Tenant").
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Subscriptions returns every subscription with its tenant and user, newest first.
func (s *AdminService) Subscriptions(ctx context.Context) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Preload("Tenant").
		Preload("User").
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// dailyBuckets counts times per UTC day for days days from start, zero-filled.
func dailyBuckets(start time.Time, days int, times []time.Time) []DailyCount {
	out := make([]DailyCount, days)
	index := make(map[string]int, days)
	for i := range out {
		date := start.AddDate(0, 0, i).Format(time.DateOnly)
		out[i] = DailyCount{Date: date}
		index[date] = i
	}
	for _, t := range times {
		if i, ok := index[t.UTC().Format(time.DateOnly)]; ok {
			out[i].Count++
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
