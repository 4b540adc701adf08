package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/usecase/history"
)

// RangeService runs and tracks range calculations
type RangeService interface {
	CalculateRange(ctx context.Context, userID uuid.UUID, start, end time.Time, onProgress history.ProgressFunc) (*history.RangeResult, error)
	ResumeJob(ctx context.Context, jobID uuid.UUID, onProgress history.ProgressFunc) (*history.RangeResult, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*domain.CalculationJob, error)
}

// ValueService values single days and reads stored history
type ValueService interface {
	ValueOn(ctx context.Context, userID uuid.UUID, day time.Time) (*domain.DailyValue, error)
	ListDailyValues(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*domain.DailyValue, error)
}

// Server implements the HistoryService gRPC server
type Server struct {
	UnimplementedHistoryServiceServer

	Ranges RangeService
	Values ValueService

	log zerolog.Logger
}

// NewServer creates a new gRPC server instance
func NewServer(ranges RangeService, values ValueService, log zerolog.Logger) *Server {
	return &Server{
		Ranges: ranges,
		Values: values,
		log:    log.With().Str("component", "grpc").Logger(),
	}
}

// CalculateRange handles the CalculateRange RPC.
// Progress is streamed after every day; the final event carries the result.
func (s *Server) CalculateRange(req *CalculateRangeRequest, stream HistoryService_RangeServer) error {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid user_id format: %v", err)
	}
	start, err := domain.ParseDay(req.StartDate)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid start_date format: %v", err)
	}
	end, err := domain.ParseDay(req.EndDate)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid end_date format: %v", err)
	}

	result, err := s.Ranges.CalculateRange(stream.Context(), userID, start, end, s.progressSender(stream))
	if err != nil {
		return mapError(err)
	}

	return stream.Send(&RangeEvent{Result: rangeResultToMessage(result)})
}

// ResumeJob handles the ResumeJob RPC
func (s *Server) ResumeJob(req *ResumeJobRequest, stream HistoryService_RangeServer) error {
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid job_id format: %v", err)
	}

	result, err := s.Ranges.ResumeJob(stream.Context(), jobID, s.progressSender(stream))
	if err != nil {
		return mapError(err)
	}

	return stream.Send(&RangeEvent{Result: rangeResultToMessage(result)})
}

// progressSender forwards progress to the stream. A failed send is logged:
// the client is gone and the cancelled stream context stops the run between days.
func (s *Server) progressSender(stream HistoryService_RangeServer) history.ProgressFunc {
	return func(percent float64, currentDate string) {
		err := stream.Send(&RangeEvent{Progress: &Progress{Percent: percent, CurrentDate: currentDate}})
		if err != nil {
			s.log.Debug().Err(err).Str("date", currentDate).Msg("Failed to send progress")
		}
	}
}

// ValueOn handles the ValueOn RPC
func (s *Server) ValueOn(ctx context.Context, req *ValueOnRequest) (*DailyValue, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid user_id format: %v", err)
	}
	day, err := domain.ParseDay(req.Date)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid date format: %v", err)
	}

	value, err := s.Values.ValueOn(ctx, userID, day)
	if err != nil {
		return nil, mapError(err)
	}

	return dailyValueToMessage(value), nil
}

// ListDailyValues handles the ListDailyValues RPC
func (s *Server) ListDailyValues(ctx context.Context, req *ListDailyValuesRequest) (*ListDailyValuesResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid user_id format: %v", err)
	}
	start, err := domain.ParseDay(req.StartDate)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid start_date format: %v", err)
	}
	end, err := domain.ParseDay(req.EndDate)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid end_date format: %v", err)
	}

	values, err := s.Values.ListDailyValues(ctx, userID, start, end)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListDailyValuesResponse{Values: make([]*DailyValue, 0, len(values))}
	for _, v := range values {
		resp.Values = append(resp.Values, dailyValueToMessage(v))
	}
	return resp, nil
}

// GetJob handles the GetJob RPC
func (s *Server) GetJob(ctx context.Context, req *GetJobRequest) (*Job, error) {
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid job_id format: %v", err)
	}

	job, err := s.Ranges.GetJob(ctx, jobID)
	if err != nil {
		return nil, mapError(err)
	}

	return jobToMessage(job), nil
}

// rangeResultToMessage converts a history.RangeResult to its wire form
func rangeResultToMessage(result *history.RangeResult) *RangeResult {
	msg := &RangeResult{
		JobID:          result.JobID.String(),
		DaysCalculated: result.DaysCalculated,
		DaysFailed:     result.DaysFailed,
		Errors:         result.Errors,
		Success:        result.Success,
		Cancelled:      result.Cancelled,
		PriceStats:     priceStatsToMessage(result.PriceStats),
		Summary:        result.Summary(),
	}
	if result.ResumeFrom != nil {
		msg.ResumeFrom = domain.FormatDay(*result.ResumeFrom)
	}
	return msg
}

func priceStatsToMessage(stats domain.PriceStats) PriceStats {
	return PriceStats{
		Exact:         stats.Exact,
		ForwardFilled: stats.ForwardFilled,
		LiveFallback:  stats.LiveFallback,
		Missing:       stats.Missing,
	}
}

// dailyValueToMessage converts a domain DailyValue to its wire form
func dailyValueToMessage(v *domain.DailyValue) *DailyValue {
	msg := &DailyValue{
		UserID:              v.UserID.String(),
		Date:                domain.FormatDay(v.Date),
		TotalValue:          v.TotalValue.String(),
		TotalCostBasis:      v.TotalCostBasis.String(),
		CashValue:           v.CashValue.String(),
		InvestedValue:       v.InvestedValue.String(),
		UnrealizedGain:      v.UnrealizedGain.String(),
		RealizedGain:        v.RealizedGain.String(),
		AssetClassBreakdown: make(map[string]string, len(v.AssetClassBreakdown)),
		TickerBreakdown:     make(map[string]TickerValue, len(v.TickerBreakdown)),
		AccountBreakdown:    make(map[string]string, len(v.AccountBreakdown)),
		DataQuality:         v.DataQuality,
		PriceStats:          priceStatsToMessage(v.PriceStats),
		CalculatedAt:        v.CalculatedAt.UTC().Format(time.RFC3339),
	}
	for class, amount := range v.AssetClassBreakdown {
		msg.AssetClassBreakdown[class] = amount.String()
	}
	for symbol, tv := range v.TickerBreakdown {
		msg.TickerBreakdown[symbol] = TickerValue{
			Value:    tv.Value.String(),
			Quantity: tv.Quantity.String(),
			Price:    tv.Price.String(),
		}
	}
	for account, amount := range v.AccountBreakdown {
		msg.AccountBreakdown[account.String()] = amount.String()
	}
	return msg
}

// jobToMessage converts a domain CalculationJob to its wire form
func jobToMessage(job *domain.CalculationJob) *Job {
	msg := &Job{
		ID:             job.ID.String(),
		UserID:         job.UserID.String(),
		StartDate:      domain.FormatDay(job.StartDate),
		EndDate:        domain.FormatDay(job.EndDate),
		Status:         string(job.Status),
		Progress:       job.Progress,
		DaysCalculated: job.DaysCalculated,
		DaysFailed:     job.DaysFailed,
		ErrorMessage:   job.ErrorText,
		CreatedAt:      job.CreatedAt.UTC().Format(time.RFC3339),
	}
	if job.ResumeFrom != nil {
		msg.ResumeFrom = domain.FormatDay(*job.ResumeFrom)
	}
	if job.StartedAt != nil {
		msg.StartedAt = job.StartedAt.UTC().Format(time.RFC3339)
	}
	if job.CompletedAt != nil {
		msg.CompletedAt = job.CompletedAt.UTC().Format(time.RFC3339)
	}
	return msg
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	errorMsg := err.Error()

	switch {
	case errors.Is(err, domain.ErrInvalidRange):
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", errorMsg)
	case errors.Is(err, domain.ErrNoAccounts),
		errors.Is(err, domain.ErrJobNotResumable),
		errors.Is(err, domain.ErrInvalidJobTransition):
		return status.Errorf(codes.FailedPrecondition, "%s", errorMsg)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s", errorMsg)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", errorMsg)
}
