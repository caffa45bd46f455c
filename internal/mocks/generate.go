// Package mocks provides gomock implementations of the core ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	jobs := mocks.NewMockJobSource(ctrl)
//	jobs.EXPECT().ListJobs(gomock.Any(), gomock.Any()).Return(fixture, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_source_mock.go github.com/dealerops/agenda-api/internal/core JobSource
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=status_sink_mock.go github.com/dealerops/agenda-api/internal/core StatusSink
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/dealerops/agenda-api/internal/core JobRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/dealerops/agenda-api/internal/core CacheRepository
