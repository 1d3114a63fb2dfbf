package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetAffiliateRepository returns the affiliate repository instance
func (f *Factory) GetAffiliateRepository() AffiliateRepository {
	return f.GetRepositories().Affiliate
}

// GetOfferRepository returns the offer repository instance
func (f *Factory) GetOfferRepository() OfferRepository {
	return f.GetRepositories().Offer
}

// GetCommissionRepository returns the commission repository instance
func (f *Factory) GetCommissionRepository() CommissionRepository {
	return f.GetRepositories().Commission
}

// GetFraudFlagRepository returns the fraud flag repository instance
func (f *Factory) GetFraudFlagRepository() FraudFlagRepository {
	return f.GetRepositories().FraudFlag
}

// GetPayoutRunRepository returns the payout run repository instance
func (f *Factory) GetPayoutRunRepository() PayoutRunRepository {
	return f.GetRepositories().PayoutRun
}

// GetVisitorSessionRepository returns the visitor session repository instance
func (f *Factory) GetVisitorSessionRepository() VisitorSessionRepository {
	return f.GetRepositories().VisitorSession
}

// GetVisitorEventRepository returns the visitor event repository instance
func (f *Factory) GetVisitorEventRepository() VisitorEventRepository {
	return f.GetRepositories().VisitorEvent
}

// GetQueueRepository returns the queue repository instance
func (f *Factory) GetQueueRepository() QueueRepository {
	return f.GetRepositories().Queue
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
