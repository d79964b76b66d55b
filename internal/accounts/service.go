package accounts

import (
	"github.com/cleared-dev/bankdesk/internal/model"
)

// Service provides in-memory lookup over the host's accounts list.
type Service struct {
	accounts []model.Account
	byID     map[string]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byID := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &Service{accounts: accounts, byID: byID}
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by ID.
func (s *Service) Get(id string) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// ByDetailType returns all accounts of the given detail type.
func (s *Service) ByDetailType(detail model.DetailType) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.DetailType == detail {
			result = append(result, a)
		}
	}
	return result
}

// Banking returns the accounts that carry bank feeds, in their original order.
func (s *Service) Banking() []model.Account {
	return FilterBanking(s.accounts)
}

// FilterBanking keeps checking, savings and credit card accounts, preserving order.
func FilterBanking(accounts []model.Account) []model.Account {
	result := make([]model.Account, 0, len(accounts))
	for _, a := range accounts {
		if a.DetailType.IsBanking() {
			result = append(result, a)
		}
	}
	return result
}
