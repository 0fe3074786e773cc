package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/api"
	"finboard/internal/cache"
	"finboard/internal/core"
)

const (
	expenseCacheSize  = 50
	defaultCacheSize  = 8
	defaultCacheTTL   = 5 * time.Minute
	ratesCacheTTL     = time.Hour
	categoriesAllKey  = "all"
	categoriesUserKey = "user"
)

// DashboardService is the read and mutation surface over the backend
// API. Reads go through per-collection LRU caches; every mutation
// reports the collections it touched and the registry purges them, so
// the next read refetches.
type DashboardService struct {
	api      *api.Client
	registry *cache.Registry

	expenses    *cache.LRUCache[[]core.Transaction]
	budgets     *cache.LRUCache[[]core.Budget]
	categories  *cache.LRUCache[[]core.Category]
	goals       *cache.LRUCache[[]core.Goal]
	insights    *cache.LRUCache[[]core.Insight]
	preferences *cache.LRUCache[core.Preferences]
	rates       *cache.LRUCache[core.Rates]
}

// BulkData is the initial dashboard load.
type BulkData struct {
	Expenses   []core.Transaction
	Budgets    []core.Budget
	Categories []core.Category
	Goals      []core.Goal
}

func NewDashboardService(apiClient *api.Client) *DashboardService {
	s := &DashboardService{
		api:         apiClient,
		registry:    cache.NewRegistry(),
		expenses:    cache.NewLRUCache[[]core.Transaction](expenseCacheSize, defaultCacheTTL),
		budgets:     cache.NewLRUCache[[]core.Budget](defaultCacheSize, defaultCacheTTL),
		categories:  cache.NewLRUCache[[]core.Category](defaultCacheSize, defaultCacheTTL),
		goals:       cache.NewLRUCache[[]core.Goal](defaultCacheSize, defaultCacheTTL),
		insights:    cache.NewLRUCache[[]core.Insight](defaultCacheSize, defaultCacheTTL),
		preferences: cache.NewLRUCache[core.Preferences](1, defaultCacheTTL),
		rates:       cache.NewLRUCache[core.Rates](1, ratesCacheTTL),
	}

	s.registry.Register(cache.Expenses, s.expenses)
	s.registry.Register(cache.Budgets, s.budgets)
	s.registry.Register(cache.Categories, s.categories)
	s.registry.Register(cache.Goals, s.goals)
	s.registry.Register(cache.Insights, s.insights)
	s.registry.Register(cache.Preferences, s.preferences)

	return s
}

// Registry exposes the cache registry for the cleanup manager.
func (s *DashboardService) Registry() *cache.Registry {
	return s.registry
}

// Load fetches the initial dashboard collections concurrently. Any
// failure fails the whole load; callers render a full-page error.
func (s *DashboardService) Load(ctx context.Context) (BulkData, error) {
	var data BulkData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.Expenses, err = s.GetExpenses(gctx, core.Filter{})
		return err
	})
	g.Go(func() error {
		var err error
		data.Budgets, err = s.GetBudgets(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		data.Categories, err = s.GetCategories(gctx, true)
		return err
	})
	g.Go(func() error {
		var err error
		data.Goals, err = s.GetGoals(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return BulkData{}, fmt.Errorf("load dashboard: %w", err)
	}

	return data, nil
}

func (s *DashboardService) GetExpenses(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	key := f.Key()
	if cached, ok := s.expenses.Get(key); ok {
		return cached, nil
	}

	list, err := s.api.ListExpenses(ctx, f)
	if err != nil {
		return nil, err
	}

	s.expenses.Set(key, list)
	return list, nil
}

func (s *DashboardService) GetBudgets(ctx context.Context) ([]core.Budget, error) {
	if cached, ok := s.budgets.Get(categoriesAllKey); ok {
		return cached, nil
	}

	list, err := s.api.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}

	s.budgets.Set(categoriesAllKey, list)
	return list, nil
}

func (s *DashboardService) GetCategories(ctx context.Context, includeDefaults bool) ([]core.Category, error) {
	key := categoriesUserKey
	if includeDefaults {
		key = categoriesAllKey
	}
	if cached, ok := s.categories.Get(key); ok {
		return cached, nil
	}

	list, err := s.api.ListCategories(ctx, includeDefaults)
	if err != nil {
		return nil, err
	}

	s.categories.Set(key, list)
	return list, nil
}

func (s *DashboardService) GetGoals(ctx context.Context) ([]core.Goal, error) {
	if cached, ok := s.goals.Get(categoriesAllKey); ok {
		return cached, nil
	}

	list, err := s.api.ListGoals(ctx)
	if err != nil {
		return nil, err
	}

	s.goals.Set(categoriesAllKey, list)
	return list, nil
}

func (s *DashboardService) GetInsights(ctx context.Context) ([]core.Insight, bool) {
	cached, ok := s.insights.Get(categoriesAllKey)
	return cached, ok
}

func (s *DashboardService) GetPreferences(ctx context.Context) (core.Preferences, error) {
	if cached, ok := s.preferences.Get(categoriesAllKey); ok {
		return cached, nil
	}

	prefs, err := s.api.GetPreferences(ctx)
	if err != nil {
		return core.Preferences{}, err
	}

	s.preferences.Set(categoriesAllKey, prefs)
	return prefs, nil
}

func (s *DashboardService) GetRates(ctx context.Context) (core.Rates, error) {
	if cached, ok := s.rates.Get(categoriesAllKey); ok {
		return cached, nil
	}

	rates, err := s.api.GetRates(ctx)
	if err != nil {
		return core.Rates{}, err
	}

	s.rates.Set(categoriesAllKey, rates)
	return rates, nil
}

// invalidate purges the given collections and returns them so callers
// can attach the set to the response.
func (s *DashboardService) invalidate(cols ...cache.Collection) []cache.Collection {
	s.registry.Invalidate(cols...)
	return cols
}

// Expense mutations. Adding or changing an expense also shifts budget
// spent totals, so both collections go stale together.

func (s *DashboardService) AddExpense(ctx context.Context, t core.Transaction) (core.Transaction, []cache.Collection, error) {
	created, err := s.api.CreateExpense(ctx, t)
	if err != nil {
		return core.Transaction{}, nil, err
	}
	return created, s.invalidate(cache.Expenses, cache.Budgets), nil
}

func (s *DashboardService) AddExpensesBulk(ctx context.Context, list []core.Transaction) ([]core.Transaction, []cache.Collection, error) {
	created, err := s.api.CreateExpensesBulk(ctx, list)
	if err != nil {
		return nil, nil, err
	}
	return created, s.invalidate(cache.Expenses, cache.Budgets), nil
}

func (s *DashboardService) UpdateExpense(ctx context.Context, t core.Transaction) ([]cache.Collection, error) {
	if err := s.api.UpdateExpense(ctx, t); err != nil {
		return nil, err
	}
	return s.invalidate(cache.Expenses, cache.Budgets), nil
}

func (s *DashboardService) DeleteExpense(ctx context.Context, id string) ([]cache.Collection, error) {
	if err := s.api.DeleteExpense(ctx, id); err != nil {
		return nil, err
	}
	return s.invalidate(cache.Expenses, cache.Budgets), nil
}

// Budget mutations.

func (s *DashboardService) AddBudget(ctx context.Context, b core.Budget) ([]cache.Collection, error) {
	if err := s.api.CreateBudget(ctx, b); err != nil {
		return nil, err
	}
	return s.invalidate(cache.Budgets), nil
}

func (s *DashboardService) BumpBudgetSpent(ctx context.Context, category string, amount float64) ([]cache.Collection, error) {
	if err := s.api.UpdateBudgetSpent(ctx, category, amount); err != nil {
		return nil, err
	}
	return s.invalidate(cache.Budgets), nil
}

func (s *DashboardService) DeleteBudget(ctx context.Context, category string) ([]cache.Collection, error) {
	if err := s.api.DeleteBudget(ctx, category); err != nil {
		return nil, err
	}
	return s.invalidate(cache.Budgets), nil
}

// Category mutations. Expenses render category names and colors, so
// category changes also stale the expense list.

func (s *DashboardService) AddCategory(ctx context.Context, c core.Category) (core.Category, []cache.Collection, error) {
	created, err := s.api.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, nil, err
	}
	return created, s.invalidate(cache.Categories), nil
}

func (s *DashboardService) UpdateCategory(ctx context.Context, c core.Category) ([]cache.Collection, error) {
	if err := s.api.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return s.invalidate(cache.Categories, cache.Expenses), nil
}

func (s *DashboardService) DeleteCategory(ctx context.Context, c core.Category) ([]cache.Collection, error) {
	if err := s.api.DeleteCategory(ctx, c); err != nil {
		return nil, err
	}
	return s.invalidate(cache.Categories, cache.Expenses), nil
}

// Goal mutations.

func (s *DashboardService) AddGoal(ctx context.Context, g core.Goal) (core.Goal, []cache.Collection, error) {
	created, err := s.api.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, nil, err
	}
	return created, s.invalidate(cache.Goals), nil
}

func (s *DashboardService) UpdateGoal(ctx context.Context, g core.Goal) ([]cache.Collection, error) {
	if err := s.api.UpdateGoal(ctx, g); err != nil {
		return nil, err
	}
	return s.invalidate(cache.Goals), nil
}

func (s *DashboardService) UpdateGoalProgress(ctx context.Context, id string, current float64) ([]cache.Collection, error) {
	if err := s.api.UpdateGoalProgress(ctx, id, current); err != nil {
		return nil, err
	}
	return s.invalidate(cache.Goals), nil
}

func (s *DashboardService) DeleteGoal(ctx context.Context, id string) ([]cache.Collection, error) {
	if err := s.api.DeleteGoal(ctx, id); err != nil {
		return nil, err
	}
	return s.invalidate(cache.Goals), nil
}

// GenerateInsights asks the backend for fresh insights and caches them.
func (s *DashboardService) GenerateInsights(ctx context.Context) ([]core.Insight, []cache.Collection, error) {
	list, err := s.api.GenerateInsights(ctx)
	if err != nil {
		return nil, nil, err
	}

	cols := s.invalidate(cache.Insights)
	s.insights.Set(categoriesAllKey, list)
	return list, cols, nil
}

// UpdatePreferences saves display preferences. Currency affects every
// rendered amount, so the read caches go stale too.
func (s *DashboardService) UpdatePreferences(ctx context.Context, p core.Preferences) ([]cache.Collection, error) {
	if err := s.api.UpdatePreferences(ctx, p); err != nil {
		return nil, err
	}
	return s.invalidate(cache.Preferences, cache.Expenses, cache.Budgets), nil
}
