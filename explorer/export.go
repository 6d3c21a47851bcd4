package explorer

import (
	"context"
	"fmt"
	"io"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

const exportBatch = MaxLimit

type parquetEvent struct {
	Sequence     int64  `parquet:"name=sequence, type=INT64"`
	Type         string `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Subject      string `parquet:"name=subject, type=BYTE_ARRAY, convertedtype=UTF8"`
	Counterparty string `parquet:"name=counterparty, type=BYTE_ARRAY, convertedtype=UTF8"`
	Amount       string `parquet:"name=amount, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp    int64  `parquet:"name=timestamp, type=INT64"`
	Attributes   string `parquet:"name=attributes, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Range returns up to limit events with a sequence above after, in commit
// order.
func (s *Store) Range(ctx context.Context, after uint64, limit int) ([]EventRecord, error) {
	var out []EventRecord
	err := s.db.WithContext(ctx).
		Where("sequence > ?", after).
		Order("sequence ASC").
		Limit(clampLimit(limit)).
		Find(&out).Error
	return out, err
}

// ExportParquet streams every event after the given sequence to w as a
// snappy-compressed parquet file and returns the number of rows written.
func (s *Store) ExportParquet(ctx context.Context, w io.Writer, after uint64) (int, error) {
	pw, err := writer.NewParquetWriter(writerfile.NewWriterFile(w), new(parquetEvent), 1)
	if err != nil {
		return 0, fmt.Errorf("explorer: parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	written := 0
	for {
		batch, err := s.Range(ctx, after, exportBatch)
		if err != nil {
			pw.WriteStop()
			return written, err
		}
		for _, record := range batch {
			row := &parquetEvent{
				Sequence:     int64(record.Sequence),
				Type:         record.Type,
				Subject:      record.Subject,
				Counterparty: record.Counterparty,
				Amount:       record.Amount,
				Timestamp:    record.Timestamp,
				Attributes:   record.Attributes,
			}
			if err := pw.Write(row); err != nil {
				pw.WriteStop()
				return written, fmt.Errorf("explorer: parquet write: %w", err)
			}
			written++
			after = record.Sequence
		}
		if len(batch) < exportBatch {
			break
		}
	}
	if err := pw.WriteStop(); err != nil {
		return written, fmt.Errorf("explorer: parquet flush: %w", err)
	}
	return written, nil
}
