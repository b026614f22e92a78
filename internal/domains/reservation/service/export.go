package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"tavolo/infras/s3"
	"tavolo/internal/domains/reservation/model"
	"tavolo/internal/domains/reservation/model/dto"
	"tavolo/shared/constant"
	gDto "tavolo/shared/dto"
	"tavolo/shared/failure"
	"tavolo/shared/timezone"

	"github.com/rs/zerolog/log"
)

// exportArchiver is the slice of the object-store client the export path
// needs.
type exportArchiver interface {
	UploadFileBytes(ctx context.Context, bucketName, directory, fileName, contentType string, fileData []byte) (string, error)
}

var _ exportArchiver = (s3.S3)(nil)

var exportHeader = []string{
	"id",
	"guest_name",
	"guest_phone",
	"reservation_date",
	"reservation_time",
	"party_size",
	"status",
	"table_id",
	"source",
	"special_requests",
	"admin_notes",
	"created_at",
}

// ExportCSV renders the filtered reservation set as CSV. With archive set the
// file is also uploaded to the object store and the returned string carries
// its public URL.
func (s *serviceImpl) ExportCSV(ctx context.Context, filter dto.ReservationFilter, archive bool) (data []byte, url string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ExportCSV")
	defer scope.End()
	defer scope.TraceIfError(err)

	params := gDto.QueryParams{
		SortBy:  model.FieldReservationDate + "," + model.FieldReservationTime,
		SortDir: gDto.SortDirAsc,
	}

	reservations, err := s.repo.GetAll(ctx, params, filter.ToFilterGroup())
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservations for export")

		return nil, constant.Empty, fmt.Errorf("failed to get reservations for export: %w", err)
	}

	var buf bytes.Buffer

	writer := csv.NewWriter(&buf)
	if err = writer.Write(exportHeader); err != nil {
		return nil, constant.Empty, fmt.Errorf("failed to write export header: %w", err)
	}

	for i := range reservations {
		if err = writer.Write(exportRow(&reservations[i])); err != nil {
			return nil, constant.Empty, fmt.Errorf("failed to write export row: %w", err)
		}
	}

	writer.Flush()

	if err = writer.Error(); err != nil {
		return nil, constant.Empty, fmt.Errorf("failed to flush export: %w", err)
	}

	data = buf.Bytes()

	if !archive {
		return data, constant.Empty, nil
	}

	fileName := fmt.Sprintf("reservations-%s.csv", timezone.Now().Format("20060102-150405"))

	url, err = s.s3.UploadFileBytes(
		ctx,
		s.cfg.External.S3.BucketName,
		s.cfg.External.S3.ExportDirectory,
		fileName,
		"text/csv",
		data,
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to archive export")

		return nil, constant.Empty, failure.BadGateway("failed to archive export") // nolint:wrapcheck
	}

	return data, url, nil
}

func exportRow(r *model.Reservation) []string {
	tableID := constant.Empty
	if r.TableID != nil {
		tableID = *r.TableID
	}

	return []string{
		r.ID,
		r.GuestName,
		r.GuestPhone,
		r.ReservationDate.Format(model.DateFormat),
		r.ReservationTime.Format(model.TimeFormat),
		fmt.Sprintf("%d", r.PartySize),
		r.Status,
		tableID,
		r.Source,
		r.SpecialRequests,
		r.AdminNotes,
		r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
