package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/app/repository"
	"github.com/RefTrackApp/RefTrack/internal/pkg/cache"
	"github.com/RefTrackApp/RefTrack/internal/pkg/database"
)

const (
	CacheKeyAffiliatesTotal  = "statistics:affiliates:total:%d"  // Format with shop ID
	CacheKeyAffiliatesActive = "statistics:affiliates:active:%d" // Format with shop ID
	CacheKeyCommissionsOpen  = "statistics:commissions:open:%d"  // Format with shop ID
	CacheKeyUnpaidAmount     = "statistics:commissions:unpaid:%d"
	CacheKeyCommissionsDaily = "statistics:commissions:daily:%d:%s" // Format with shop ID and date YYYY-MM-DD
	CacheExpiration          = 30 * time.Minute
)

// DashboardData holds the cached totals for the dashboard header
type DashboardData struct {
	TotalAffiliates  int     `json:"total_affiliates"`
	ActiveAffiliates int     `json:"active_affiliates"`
	OpenCommissions  int     `json:"open_commissions"`
	UnpaidAmount     float64 `json:"unpaid_approved_amount"`
	TodayCommissions int     `json:"today_commissions"`
}

// Cache refresh bookkeeping, guarded per shop
var (
	lastCacheUpdate     = map[uint]time.Time{}
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the shop's cache is due for a refresh
func ShouldUpdateCache(shopID uint) bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate[shopID]) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the shop's cached totals when the refresh
// interval has elapsed
func UpdateCacheIfNeeded(shopID uint) {
	if ShouldUpdateCache(shopID) {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		log.Printf("Refreshing dashboard statistics cache for shop %d...", shopID)
		if err := UpdateStatisticsCache(shopID); err != nil {
			log.Printf("Error refreshing statistics cache for shop %d: %v", shopID, err)
		} else {
			lastCacheUpdate[shopID] = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next read to refresh the cache
func ResetCacheUpdateTimer(shopID uint) {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	delete(lastCacheUpdate, shopID)
}

// UpdateStatisticsCache recomputes every dashboard total for the shop and
// stores it in the cache
func UpdateStatisticsCache(shopID uint) error {
	db := database.GetDB()
	affiliates := repository.NewAffiliateRepository(db)
	commissions := repository.NewCommissionRepository(db)

	totalAffiliates, err := affiliates.Count(shopID)
	if err != nil {
		log.Printf("Error counting affiliates: %v", err)
		return err
	}

	activeAffiliates, err := affiliates.CountByStatus(shopID, models.AFFILIATE_STATUS_ACTIVE)
	if err != nil {
		log.Printf("Error counting active affiliates: %v", err)
		return err
	}

	openCommissions, err := countOpenCommissions(commissions, shopID)
	if err != nil {
		log.Printf("Error counting open commissions: %v", err)
		return err
	}

	unpaidAmount, err := commissions.SumAmountByStatus(shopID, models.COMMISSION_STATUS_APPROVED)
	if err != nil {
		log.Printf("Error summing unpaid approved commissions: %v", err)
		return err
	}

	todayCommissions, err := commissions.CountCreatedToday(shopID)
	if err != nil {
		log.Printf("Error counting today's commissions: %v", err)
		return err
	}

	if err := cache.Set(fmt.Sprintf(CacheKeyAffiliatesTotal, shopID), strconv.FormatInt(totalAffiliates, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(fmt.Sprintf(CacheKeyAffiliatesActive, shopID), strconv.FormatInt(activeAffiliates, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(fmt.Sprintf(CacheKeyCommissionsOpen, shopID), strconv.FormatInt(openCommissions, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(fmt.Sprintf(CacheKeyUnpaidAmount, shopID), strconv.FormatFloat(unpaidAmount, 'f', 2, 64), CacheExpiration); err != nil {
		return err
	}
	today := time.Now().Format("2006-01-02")
	if err := cache.Set(fmt.Sprintf(CacheKeyCommissionsDaily, shopID, today), strconv.FormatInt(todayCommissions, 10), CacheExpiration); err != nil {
		return err
	}

	return nil
}

// countOpenCommissions counts commissions still waiting for review, which
// is the pending plus the eligible bucket
func countOpenCommissions(commissions repository.CommissionRepository, shopID uint) (int64, error) {
	pending, err := commissions.Count(shopID, models.COMMISSION_STATUS_PENDING, 0)
	if err != nil {
		return 0, err
	}
	eligible, err := commissions.Count(shopID, models.COMMISSION_STATUS_ELIGIBLE, 0)
	if err != nil {
		return 0, err
	}
	return pending + eligible, nil
}

// GetTotalAffiliates returns the shop's affiliate count from cache or database
func GetTotalAffiliates(shopID uint) int {
	key := fmt.Sprintf(CacheKeyAffiliatesTotal, shopID)
	if val, err := cache.Get(key); err == nil {
		return parseCachedInt(val)
	}

	count, err := repository.NewAffiliateRepository(database.GetDB()).Count(shopID)
	if err != nil {
		log.Printf("Error counting affiliates: %v", err)
		return 0
	}
	if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Printf("Error caching affiliate count: %v", err)
	}
	return int(count)
}

// GetActiveAffiliates returns the shop's active affiliate count from cache or database
func GetActiveAffiliates(shopID uint) int {
	key := fmt.Sprintf(CacheKeyAffiliatesActive, shopID)
	if val, err := cache.Get(key); err == nil {
		return parseCachedInt(val)
	}

	count, err := repository.NewAffiliateRepository(database.GetDB()).CountByStatus(shopID, models.AFFILIATE_STATUS_ACTIVE)
	if err != nil {
		log.Printf("Error counting active affiliates: %v", err)
		return 0
	}
	if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Printf("Error caching active affiliate count: %v", err)
	}
	return int(count)
}

// GetOpenCommissions returns the count of pending plus eligible commissions
// from cache or database
func GetOpenCommissions(shopID uint) int {
	key := fmt.Sprintf(CacheKeyCommissionsOpen, shopID)
	if val, err := cache.Get(key); err == nil {
		return parseCachedInt(val)
	}

	count, err := countOpenCommissions(repository.NewCommissionRepository(database.GetDB()), shopID)
	if err != nil {
		log.Printf("Error counting open commissions: %v", err)
		return 0
	}
	if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Printf("Error caching open commission count: %v", err)
	}
	return int(count)
}

// GetUnpaidAmount returns the summed amount of approved but unpaid
// commissions from cache or database
func GetUnpaidAmount(shopID uint) float64 {
	key := fmt.Sprintf(CacheKeyUnpaidAmount, shopID)
	if val, err := cache.Get(key); err == nil {
		amount, perr := strconv.ParseFloat(val, 64)
		if perr != nil {
			return 0
		}
		return amount
	}

	amount, err := repository.NewCommissionRepository(database.GetDB()).SumAmountByStatus(shopID, models.COMMISSION_STATUS_APPROVED)
	if err != nil {
		log.Printf("Error summing unpaid approved commissions: %v", err)
		return 0
	}
	if err := cache.Set(key, strconv.FormatFloat(amount, 'f', 2, 64), CacheExpiration); err != nil {
		log.Printf("Error caching unpaid amount: %v", err)
	}
	return amount
}

// GetTodayCommissions returns the number of commissions created today from
// cache or database
func GetTodayCommissions(shopID uint) int {
	today := time.Now().Format("2006-01-02")
	key := fmt.Sprintf(CacheKeyCommissionsDaily, shopID, today)
	if val, err := cache.Get(key); err == nil {
		return parseCachedInt(val)
	}

	count, err := repository.NewCommissionRepository(database.GetDB()).CountCreatedToday(shopID)
	if err != nil {
		log.Printf("Error counting today's commissions: %v", err)
		return 0
	}
	if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's commission count: %v", err)
	}
	return int(count)
}

// GetDashboardData returns all dashboard totals, refreshing the cache when due
func GetDashboardData(shopID uint) DashboardData {
	UpdateCacheIfNeeded(shopID)

	return DashboardData{
		TotalAffiliates:  GetTotalAffiliates(shopID),
		ActiveAffiliates: GetActiveAffiliates(shopID),
		OpenCommissions:  GetOpenCommissions(shopID),
		UnpaidAmount:     GetUnpaidAmount(shopID),
		TodayCommissions: GetTodayCommissions(shopID),
	}
}

func parseCachedInt(val string) int {
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return int(count)
}
