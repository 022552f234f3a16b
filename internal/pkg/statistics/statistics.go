package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/eduprompt/eduprompt/app/models"
	"github.com/eduprompt/eduprompt/internal/pkg/cache"
	"github.com/eduprompt/eduprompt/internal/pkg/database"
)

const (
	CacheKeyPromptsTotal = "statistics:prompts:total"
	CacheKeyPromptsDaily = "statistics:prompts:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyUsers        = "statistics:users:total"
	CacheKeyPaidTotal    = "statistics:payments:paid:total"
	CacheExpiration      = 30 * time.Minute
)

// StatisticsData holds the aggregate numbers shown on the landing page and
// the admin dashboard.
type StatisticsData struct {
	TodayPrompts int
	TotalUsers   int
	TotalPrompts int
	PaidPayments int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached numbers are stale.
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when the update interval elapsed.
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next UpdateCacheIfNeeded call to refresh.
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalPrompts int64
	if err := db.Model(&models.Prompt{}).Count(&totalPrompts).Error; err != nil {
		log.Printf("Error counting total prompts: %v", err)
		return err
	}

	var todayPrompts int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.Prompt{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayPrompts).Error; err != nil {
		log.Printf("Error counting today's prompts: %v", err)
		return err
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting total users: %v", err)
		return err
	}

	var paidPayments int64
	if err := db.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusPaid).Count(&paidPayments).Error; err != nil {
		log.Printf("Error counting paid payments: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyPromptsTotal, strconv.FormatInt(totalPrompts, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total prompts: %v", err)
		return err
	}

	dailyKey := fmt.Sprintf(CacheKeyPromptsDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayPrompts, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's prompts: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total users: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyPaidTotal, strconv.FormatInt(paidPayments, 10), CacheExpiration); err != nil {
		log.Printf("Error caching paid payments: %v", err)
		return err
	}

	return nil
}

// GetTotalPrompts returns the total number of prompts from cache or database
func GetTotalPrompts() int {
	val, err := cache.Get(CacheKeyPromptsTotal)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.Prompt{}).Count(&count).Error; err != nil {
			log.Printf("Error counting total prompts: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyPromptsTotal, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching total prompts: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTodayPrompts returns the number of prompts created today from cache or database
func GetTodayPrompts() int {
	today := time.Now().Format("2006-01-02")
	dailyKey := fmt.Sprintf(CacheKeyPromptsDaily, today)

	val, err := cache.Get(dailyKey)
	if err != nil {
		var count int64
		db := database.GetDB()
		todayStart, _ := time.Parse("2006-01-02", today)
		todayEnd := todayStart.Add(24 * time.Hour)

		if err := db.Model(&models.Prompt{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&count).Error; err != nil {
			log.Printf("Error counting today's prompts: %v", err)
			return 0
		}

		if err := cache.Set(dailyKey, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching today's prompts: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTotalUsers returns the total number of users from cache or database
func GetTotalUsers() int {
	val, err := cache.Get(CacheKeyUsers)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
			log.Printf("Error counting total users: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyUsers, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching total users: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetPaidPayments returns the number of paid payments from cache or database
func GetPaidPayments() int {
	val, err := cache.Get(CacheKeyPaidTotal)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusPaid).Count(&count).Error; err != nil {
			log.Printf("Error counting paid payments: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyPaidTotal, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching paid payments: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetStatisticsData returns all statistics data as StatisticsData structure
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TodayPrompts: GetTodayPrompts(),
		TotalUsers:   GetTotalUsers(),
		TotalPrompts: GetTotalPrompts(),
		PaidPayments: GetPaidPayments(),
	}
}
