package service

import (
	"agrimarket/internal/marketerrors"
	"agrimarket/internal/model"
	"agrimarket/internal/repository"
)

type DashboardService interface {
	GetDashboardStats(actor model.Actor) (*DashboardStats, error)
	GetTransactions(actor model.Actor) ([]model.Transaction, error)
	GetTransaction(actor model.Actor, id uint) (*model.Transaction, error)
}

// DashboardStats is a point-in-time read of committed state
type DashboardStats struct {
	CountByRole           map[model.Role]int64 `json:"count_by_role"`
	TotalFarmers          int64                `json:"total_farmers"`
	TotalBuyers           int64                `json:"total_buyers"`
	TotalAgents           int64                `json:"total_agents"`
	TotalAdmins           int64                `json:"total_admins"`
	ActiveListings        int64                `json:"active_listings"`
	TransactionCount      int64                `json:"transaction_count"`
	TotalTransactionValue float64              `json:"total_transaction_value"`
}

type dashboardService struct {
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	txRepo      repository.TransactionRepository
}

func NewDashboardService(uRepo repository.UserRepository, lRepo repository.ListingRepository, txRepo repository.TransactionRepository) DashboardService {
	return &dashboardService{userRepo: uRepo, listingRepo: lRepo, txRepo: txRepo}
}

func (s *dashboardService) GetDashboardStats(actor model.Actor) (*DashboardStats, error) {
	if !actor.Role.Can(model.CapDashboardView) {
		return nil, marketerrors.ErrForbidden
	}

	byRole, err := s.userRepo.CountActiveByRole()
	if err != nil {
		return nil, err
	}
	active, err := s.listingRepo.CountByStatus(model.ListingAvailable)
	if err != nil {
		return nil, err
	}
	totals, err := s.txRepo.GetTotals()
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		CountByRole:           byRole,
		TotalFarmers:          byRole[model.RoleFarmer],
		TotalBuyers:           byRole[model.RoleBuyer],
		TotalAgents:           byRole[model.RoleAgent],
		TotalAdmins:           byRole[model.RoleAdmin],
		ActiveListings:        active,
		TransactionCount:      totals.Count,
		TotalTransactionValue: totals.TotalValue,
	}, nil
}

func (s *dashboardService) GetTransactions(actor model.Actor) ([]model.Transaction, error) {
	if !actor.Role.Can(model.CapTransactionView) {
		return nil, marketerrors.ErrForbidden
	}
	return s.txRepo.FindAll()
}

// GetTransaction lets admins read any sale and parties read their own
func (s *dashboardService) GetTransaction(actor model.Actor, id uint) (*model.Transaction, error) {
	t, err := s.txRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if actor.Role.Can(model.CapTransactionView) || isParty(actor, t) {
		return t, nil
	}
	return nil, marketerrors.ErrForbidden
}

func isParty(a model.Actor, t *model.Transaction) bool {
	switch a.Role {
	case model.RoleBuyer:
		return t.BuyerID == a.UserID
	case model.RoleFarmer:
		return t.FarmerID != nil && *t.FarmerID == a.UserID
	case model.RoleAgent:
		return t.AgentID != nil && *t.AgentID == a.UserID
	case model.RoleAdmin:
		return true
	}
	return false
}
