package mysql

import (
	"context"

	"gorm.io/gorm"

	invDomain "p2p-lending/internal/domain/investment"
)

type InvestmentRepository struct{ db *gorm.DB }

func NewInvestmentRepository(db *gorm.DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

func returnsByMonth(db *gorm.DB) *gorm.DB { return db.Order("month ASC") }

// Create inserts the investment and its return records.
func (r *InvestmentRepository) Create(ctx context.Context, inv *invDomain.Investment) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InvestmentRepository) GetByInvestmentID(ctx context.Context, investmentID string) (*invDomain.Investment, error) {
	var out invDomain.Investment
	err := r.db.WithContext(ctx).
		Preload("Returns", returnsByMonth).
		Where("investment_id = ?", investmentID).
		First(&out).Error
	if err != nil {
		return nil, notFound(err, "investment %s not found", investmentID)
	}
	return &out, nil
}

func (r *InvestmentRepository) ListByLoanID(ctx context.Context, loanID string) ([]invDomain.Investment, error) {
	out := []invDomain.Investment{}
	err := r.db.WithContext(ctx).
		Preload("Returns", returnsByMonth).
		Where("loan_id = ?", loanID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// Save writes the investment row and every return record explicitly; gorm's
// association upsert would leave changed record columns untouched.
func (r *InvestmentRepository) Save(ctx context.Context, inv *invDomain.Investment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Returns").Save(inv).Error; err != nil {
			return err
		}
		for i := range inv.Returns {
			if err := tx.Save(&inv.Returns[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
