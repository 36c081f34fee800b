// Package journal persists an audit trail of trading cycles as parquet
// files, locally and optionally to S3, so every skip, placement and error
// can be reconstructed after the fact.
package journal

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	appconfig "quoteflow/config"
	"quoteflow/logger"
)

// CycleRecord is one row of the audit journal: the outcome of a single
// trading cycle together with the values the decision was based on.
type CycleRecord struct {
	Timestamp   int64   `parquet:"name=timestamp, type=INT64"`
	Symbol      string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	State       string  `parquet:"name=state, type=BYTE_ARRAY, convertedtype=UTF8"`
	Reason      string  `parquet:"name=reason, type=BYTE_ARRAY, convertedtype=UTF8"`
	Spread      float64 `parquet:"name=spread, type=DOUBLE"`
	Imbalance   float64 `parquet:"name=imbalance, type=DOUBLE"`
	Volatility  float64 `parquet:"name=volatility, type=DOUBLE"`
	BuyPrice    float64 `parquet:"name=buy_price, type=DOUBLE"`
	SellPrice   float64 `parquet:"name=sell_price, type=DOUBLE"`
	BuyOrderID  string  `parquet:"name=buy_order_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	SellOrderID string  `parquet:"name=sell_order_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Attempt     int32   `parquet:"name=attempt, type=INT32"`
}

// Cycle states recorded in the journal.
const (
	StateOpenOrders = "open_orders"
	StateSkipped    = "skipped"
	StatePlaced     = "placed"
	StateError      = "error"
)

// memoryFileWriter implements the ParquetFile interface for in-memory writing
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{buffer: &bytes.Buffer{}}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) { return mfw, nil }
func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error)  { return mfw, nil }

func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error)  { return mfw.buffer.Read(b) }
func (mfw *memoryFileWriter) Write(b []byte) (int, error) { return mfw.buffer.Write(b) }
func (mfw *memoryFileWriter) Close() error                { return nil }

// Journal buffers cycle records and flushes them as parquet files on an
// interval and on shutdown.
type Journal struct {
	config   *appconfig.Config
	s3Client *s3.Client
	ctx      context.Context
	wg       *sync.WaitGroup
	mu       sync.Mutex
	running  bool
	buffer   []CycleRecord
	ticker   *time.Ticker
	log      *logger.Log
}

// New creates a Journal. S3 upload requires valid credentials; local
// parquet files are always written under the configured directory.
func New(cfg *appconfig.Config) (*Journal, error) {
	log := logger.GetLogger()

	j := &Journal{
		config: cfg,
		wg:     &sync.WaitGroup{},
		log:    log,
	}

	if err := os.MkdirAll(cfg.Journal.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	if cfg.Journal.S3.Enabled {
		ctx := context.Background()

		loadOpts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.Journal.S3.Region),
		}
		if cfg.Journal.S3.AccessKeyID != "" && cfg.Journal.S3.SecretAccessKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					cfg.Journal.S3.AccessKeyID,
					cfg.Journal.S3.SecretAccessKey,
					"",
				),
			))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load AWS configuration: %w", err)
		}
		creds, err := awsCfg.Credentials.Retrieve(ctx)
		if err != nil || !creds.HasKeys() {
			return nil, fmt.Errorf("aws credentials not found")
		}
		j.s3Client = s3.NewFromConfig(awsCfg)
	}

	log.WithComponent("journal").WithFields(logger.Fields{
		"directory":  cfg.Journal.Directory,
		"s3_enabled": cfg.Journal.S3.Enabled,
	}).Info("journal initialized")

	return j, nil
}

// Start launches the flush worker.
func (j *Journal) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return fmt.Errorf("journal already running")
	}
	j.running = true
	j.ctx = ctx
	j.ticker = time.NewTicker(j.config.Journal.FlushInterval)
	j.mu.Unlock()

	j.wg.Add(1)
	go j.flushWorker()
	return nil
}

// Stop flushes any buffered records and waits for the worker to exit.
func (j *Journal) Stop() {
	j.mu.Lock()
	j.running = false
	if j.ticker != nil {
		j.ticker.Stop()
	}
	j.mu.Unlock()

	j.wg.Wait()
	j.Flush("shutdown")
}

// Record buffers one cycle record for the next flush.
func (j *Journal) Record(rec CycleRecord) {
	j.mu.Lock()
	j.buffer = append(j.buffer, rec)
	j.mu.Unlock()
}

func (j *Journal) flushWorker() {
	defer j.wg.Done()

	log := j.log.WithComponent("journal").WithFields(logger.Fields{"worker": "flush"})
	log.Info("starting flush worker")

	for {
		select {
		case <-j.ctx.Done():
			log.Info("flush worker stopped due to context cancellation")
			return
		case <-j.ticker.C:
			j.Flush("interval")
		}
	}
}

// Flush writes buffered records to a parquet file and uploads it to S3
// when configured. Failures are logged and do not interrupt trading.
func (j *Journal) Flush(reason string) {
	j.mu.Lock()
	records := j.buffer
	j.buffer = nil
	j.mu.Unlock()

	if len(records) == 0 {
		return
	}

	log := j.log.WithComponent("journal").WithFields(logger.Fields{
		"records": len(records),
		"reason":  reason,
	})

	data, err := encodeRecords(records)
	if err != nil {
		log.WithError(err).Error("failed to encode journal records")
		return
	}

	name := fmt.Sprintf("quoteflow_%s_%s_%s.parquet",
		j.config.Strategy.Symbol,
		time.Now().UTC().Format("20060102150405"),
		uuid.New().String()[:8],
	)

	path := filepath.Join(j.config.Journal.Directory, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.WithError(err).Error("failed to write journal file")
		return
	}
	log.WithFields(logger.Fields{"path": path, "bytes": len(data)}).Info("journal flushed")

	if j.s3Client != nil {
		key := fmt.Sprintf("symbol=%s/date=%s/%s",
			j.config.Strategy.Symbol,
			time.Now().UTC().Format("2006-01-02"),
			name,
		)
		_, err := j.s3Client.PutObject(j.uploadContext(), &s3.PutObjectInput{
			Bucket:        aws.String(j.config.Journal.S3.Bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
			ContentType:   aws.String("application/octet-stream"),
		})
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{
				"bucket": j.config.Journal.S3.Bucket,
				"s3_key": key,
			}).Error("failed to upload journal to S3")
			return
		}
		log.WithFields(logger.Fields{"s3_key": key}).Info("journal uploaded")
	}
}

// uploadContext returns the run context while it is alive, falling back to
// Background during the shutdown flush.
func (j *Journal) uploadContext() context.Context {
	if j.ctx != nil && j.ctx.Err() == nil {
		return j.ctx
	}
	return context.Background()
}

func encodeRecords(records []CycleRecord) ([]byte, error) {
	fw := newMemoryFileWriter()

	pw, err := writer.NewParquetWriter(fw, new(CycleRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range records {
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	return fw.buffer.Bytes(), nil
}
