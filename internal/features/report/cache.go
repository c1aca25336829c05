package report

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const listCacheKey = "__all__"

// CachedReportRepository keeps report definitions in memory between
// scheduled runs; writes invalidate the affected entries.
type CachedReportRepository struct {
	ReportRepository
	cache *cache.Cache
}

func NewCachedReportRepository(inner ReportRepository, ttl time.Duration) *CachedReportRepository {
	return &CachedReportRepository{
		ReportRepository: inner,
		cache:            cache.New(ttl, 2*ttl),
	}
}

func (r *CachedReportRepository) Get(ctx context.Context, id string) (*Report, error) {
	if v, ok := r.cache.Get(id); ok {
		rep := *v.(*Report)
		return &rep, nil
	}

	rep, err := r.ReportRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stored := *rep
	r.cache.SetDefault(id, &stored)
	return rep, nil
}

func (r *CachedReportRepository) List(ctx context.Context) ([]Report, error) {
	if v, ok := r.cache.Get(listCacheKey); ok {
		return append([]Report(nil), v.([]Report)...), nil
	}

	reports, err := r.ReportRepository.List(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(listCacheKey, append([]Report(nil), reports...))
	return reports, nil
}

func (r *CachedReportRepository) Create(ctx context.Context, report *Report) error {
	if err := r.ReportRepository.Create(ctx, report); err != nil {
		return err
	}
	r.cache.Delete(listCacheKey)
	return nil
}

// Update invalidates on both sides of the write so a Get racing the write
// cannot leave the old definition cached
func (r *CachedReportRepository) Update(ctx context.Context, id string, report *Report) error {
	r.invalidate(id)
	defer r.invalidate(id)
	return r.ReportRepository.Update(ctx, id, report)
}

func (r *CachedReportRepository) Delete(ctx context.Context, id string) error {
	r.invalidate(id)
	defer r.invalidate(id)
	return r.ReportRepository.Delete(ctx, id)
}

func (r *CachedReportRepository) invalidate(id string) {
	r.cache.Delete(id)
	r.cache.Delete(listCacheKey)
}
