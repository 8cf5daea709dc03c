// Package vault implements the cryptographic engine of a single-file credential vault.
//
// A master password is stretched into a master key which encrypts a random vault seed.
// Every record carries a small random pepper; the seed and pepper together derive
// distinct IVs for each encrypted field of the record, so no IVs are stored per field.
//
// Engine operations are pure: they take a vault and return a new one, never mutating the input.
// Persisting the result and serializing access to the vault file is the caller's responsibility.
package vault

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tinyvault/tinyvault/internal/crypto"
	"github.com/tinyvault/tinyvault/internal/metrics"
	"github.com/tinyvault/tinyvault/vault/format"
	"github.com/tinyvault/tinyvault/vault/logging"
)

var (
	log    = logging.Module("vault")
	tracer = otel.Tracer("tinyvault/vault")
)

// Operation names used in metrics and traces.
const (
	OpGenerate = "generate"
	OpAddPass  = "addpass"
	OpViewPass = "viewpass"
	OpDellPass = "dellpass"
)

// maxPepperAttempts bounds the number of attempts to find a pepper not used by any existing record.
const maxPepperAttempts = 32

// PlainRecord is a decrypted projection of a record. It is never persisted.
type PlainRecord struct {
	ID    string `json:"ID"`
	Extra string `json:"EXTRA"`
	User  string `json:"USER"`
	Pass  string `json:"PASS"`
}

// Engine performs vault operations with a fixed set of cryptographic parameters.
// It holds no state across calls and is safe for concurrent use.
type Engine struct {
	opts Options

	keyDerivation *metrics.DurationDistribution
	records       *metrics.Gauge
}

// NewEngine returns a new Engine for the provided options. Zero-valued options are replaced with defaults.
func NewEngine(opts Options) (*Engine, error) {
	opts = opts.withDefaults()

	if err := opts.validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidInput, err.Error())
	}

	return &Engine{
		opts:          opts,
		keyDerivation: opts.Metrics.DurationDistribution("key_derivation", "Duration of master key derivation.", metrics.KeyDerivationBuckets, nil),
		records:       opts.Metrics.Gauge("records", "Number of records in the vault after the last operation.", nil),
	}, nil
}

// Options returns the options of the engine, with defaults applied.
func (e *Engine) Options() Options {
	return e.opts
}

func (e *Engine) startOperation(ctx context.Context, op string, v *format.Vault) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("op", op)}
	if v != nil {
		attrs = append(attrs, attribute.String("vault", v.IDString()), attribute.Int("records", len(v.Records)))
	}

	return tracer.Start(ctx, "Vault."+op, trace.WithAttributes(attrs...))
}

func (e *Engine) finishOperation(ctx context.Context, op string, span trace.Span, result *format.Vault, err error) {
	e.opts.Metrics.CounterInt64("operations", "Number of vault operations.", map[string]string{"op": op}).Inc()

	if err != nil {
		e.opts.Metrics.CounterInt64("operation_errors", "Number of failed vault operations.", map[string]string{"op": op}).Inc()
		span.RecordError(err)
		log(ctx).Debugf("%v failed: %v", op, err)
	} else if result != nil {
		e.records.Set(int64(len(result.Records)))
	}

	span.End()
}

func (e *Engine) randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)

	if _, err := io.ReadFull(e.opts.Rand, b); err != nil {
		return nil, errors.Wrap(err, "unable to read random bytes")
	}

	return b, nil
}

// Generate creates a new empty vault protected by the provided password.
func (e *Engine) Generate(ctx context.Context, password string) (v *format.Vault, err error) {
	ctx, span := e.startOperation(ctx, OpGenerate, nil)
	defer func() { e.finishOperation(ctx, OpGenerate, span, v, err) }()

	if password == "" {
		return nil, errors.Wrap(ErrInvalidInput, "password must not be empty")
	}

	nv := &format.Vault{Records: []*format.Record{}}

	if nv.ID, err = e.randomBytes(format.IDSize); err != nil {
		return nil, err
	}

	if nv.IV, err = e.randomBytes(format.IVSize); err != nil {
		return nil, err
	}

	if nv.Salt, err = e.randomBytes(format.SaltSize); err != nil {
		return nil, err
	}

	seed, err := e.randomBytes(format.SeedSize)
	if err != nil {
		return nil, err
	}

	defer crypto.Wipe(seed)

	masterKey, err := e.deriveMasterKey(ctx, password, nv.Salt)
	if err != nil {
		return nil, err
	}

	s, err := e.newSession(masterKey)
	if err != nil {
		crypto.Wipe(masterKey)
		return nil, err
	}

	defer s.close()

	if nv.Seed, err = s.block.Encrypt(seed, nv.IV); err != nil {
		return nil, errors.Wrap(err, "unable to encrypt seed")
	}

	log(ctx).Debugf("generated vault %v (%v, %v)", nv.IDString(), e.opts.Mode, e.opts.Hash)

	return nv, nil
}

// AddPass returns a copy of the vault with a new record prepended.
// It fails with ErrInvalidPassword if the password does not unlock the vault.
func (e *Engine) AddPass(ctx context.Context, password string, v *format.Vault, extra, user, newPass string) (result *format.Vault, err error) {
	ctx, span := e.startOperation(ctx, OpAddPass, v)
	defer func() { e.finishOperation(ctx, OpAddPass, span, result, err) }()

	s, err := e.openSession(ctx, password, v)
	if err != nil {
		return nil, err
	}

	defer s.close()

	pepper, err := e.newPepper(v)
	if err != nil {
		return nil, err
	}

	r, err := s.encryptRecord(pepper, extra, user, newPass)
	if err != nil {
		return nil, err
	}

	records := make([]*format.Record, 0, len(v.Records)+1)
	records = append(records, r)
	records = append(records, v.Records...)

	log(ctx).Debugf("added record %v to vault %v", r.PepperString(), v.IDString())

	return v.WithRecords(records), nil
}

// newPepper returns a random pepper that is not used by any record of the vault.
func (e *Engine) newPepper(v *format.Vault) ([]byte, error) {
	used := map[string]bool{}
	for _, r := range v.Records {
		used[string(r.Pepper)] = true
	}

	for range maxPepperAttempts {
		p, err := e.randomBytes(format.PepperSize)
		if err != nil {
			return nil, err
		}

		if !used[string(p)] {
			return p, nil
		}
	}

	return nil, errors.Errorf("unable to find unused pepper after %v attempts", maxPepperAttempts)
}

// ViewPass decrypts all records of the vault, in storage order (most recently added first).
// A record that fails to decrypt aborts the whole view.
func (e *Engine) ViewPass(ctx context.Context, password string, v *format.Vault) (result []PlainRecord, err error) {
	ctx, span := e.startOperation(ctx, OpViewPass, v)
	defer func() { e.finishOperation(ctx, OpViewPass, span, nil, err) }()

	s, err := e.openSession(ctx, password, v)
	if err != nil {
		return nil, err
	}

	defer s.close()

	result = make([]PlainRecord, len(v.Records))

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.opts.Concurrency)

	for i, r := range v.Records {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err //nolint:wrapcheck
			}

			pr, err := s.decryptRecord(r)
			if err != nil {
				return err
			}

			result[i] = pr

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err //nolint:wrapcheck
	}

	e.records.Set(int64(len(v.Records)))

	return result, nil
}

// NormalizeRecordID converts user-provided record identifier to the canonical lowercase hex form.
func NormalizeRecordID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// DellPass returns a copy of the vault without any record whose identifier matches.
// It also returns the number of records removed; removing nothing is not an error.
//
// No password is required, so anyone able to write the vault file can remove records.
func (e *Engine) DellPass(ctx context.Context, recordID string, v *format.Vault) (result *format.Vault, removed int, err error) {
	ctx, span := e.startOperation(ctx, OpDellPass, v)
	defer func() { e.finishOperation(ctx, OpDellPass, span, result, err) }()

	id := NormalizeRecordID(recordID)
	if id == "" {
		return nil, 0, errors.Wrap(ErrInvalidInput, "record identifier must not be empty")
	}

	if v == nil {
		return nil, 0, errors.Wrap(ErrCorrupt, "vault is nil")
	}

	if err := v.Validate(); err != nil {
		return nil, 0, err
	}

	records := make([]*format.Record, 0, len(v.Records))

	for _, r := range v.Records {
		if r.PepperString() == id {
			removed++
			continue
		}

		records = append(records, r)
	}

	log(ctx).Debugf("removed %v record(s) matching %v from vault %v without password", removed, id, v.IDString())

	return v.WithRecords(records), removed, nil
}
