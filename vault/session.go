package vault

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tinyvault/tinyvault/internal/crypto"
	"github.com/tinyvault/tinyvault/vault/encryption"
	"github.com/tinyvault/tinyvault/vault/format"
)

// session holds the secrets of an unlocked vault for the duration of a single operation.
// It must be closed when no longer needed, which wipes the key material.
type session struct {
	opts Options

	masterKey []byte
	seed      []byte
	seedPass  []byte

	block  encryption.Encryptor // vault-wide mode for the seed and the extra and user fields
	stream encryption.Encryptor // pass field
}

func (e *Engine) deriveMasterKey(ctx context.Context, password string, salt []byte) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "DeriveMasterKey")
	defer span.End()

	t0 := time.Now()

	key, err := crypto.DeriveKey([]byte(password), salt, e.opts.Iterations, e.opts.KeyBits, e.opts.Hash)
	if err != nil {
		return nil, errors.Wrap(err, "unable to derive master key")
	}

	dt := time.Since(t0)
	e.keyDerivation.Observe(dt)

	log(ctx).Debugw("derived master key", "iterations", e.opts.Iterations, "keyBits", e.opts.KeyBits, "hash", e.opts.Hash, "duration", dt)

	return key, nil
}

// newSession creates a session for the provided master key. The seed is set separately.
func (e *Engine) newSession(masterKey []byte) (*session, error) {
	block, err := encryption.CreateEncryptor(e.opts.Mode, masterKey)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create block encryptor")
	}

	stream, err := encryption.CreateEncryptor(PassMode, masterKey)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create stream encryptor")
	}

	return &session{
		opts:      e.opts,
		masterKey: masterKey,
		block:     block,
		stream:    stream,
	}, nil
}

func (s *session) setSeed(seed []byte) {
	s.seed = seed
	s.seedPass = seedPassphrase(seed)
}

// openSession derives the master key from the password and decrypts the vault seed.
func (e *Engine) openSession(ctx context.Context, password string, v *format.Vault) (*session, error) {
	if password == "" {
		return nil, errors.Wrap(ErrInvalidInput, "password must not be empty")
	}

	if v == nil {
		return nil, errors.Wrap(ErrCorrupt, "vault is nil")
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}

	masterKey, err := e.deriveMasterKey(ctx, password, v.Salt)
	if err != nil {
		return nil, err
	}

	s, err := e.newSession(masterKey)
	if err != nil {
		crypto.Wipe(masterKey)
		return nil, err
	}

	seed, err := s.block.Decrypt(v.Seed, v.IV)
	if err != nil || len(seed) != format.SeedSize {
		crypto.Wipe(seed)
		s.close()

		return nil, ErrInvalidPassword
	}

	s.setSeed(seed)

	return s, nil
}

func (s *session) fieldIVs(pepper []byte) (extraIV, userIV, passIV []byte, err error) {
	if extraIV, err = deriveFieldIV(s.seedPass, pepper, s.opts.Iterations, s.opts.Hash, fieldExtra); err != nil {
		return nil, nil, nil, err
	}

	if userIV, err = deriveFieldIV(s.seedPass, pepper, s.opts.Iterations, s.opts.Hash, fieldUser); err != nil {
		return nil, nil, nil, err
	}

	if passIV, err = deriveFieldIV(s.seedPass, pepper, s.opts.Iterations, s.opts.Hash, fieldPass); err != nil {
		return nil, nil, nil, err
	}

	return extraIV, userIV, passIV, nil
}

func (s *session) encryptRecord(pepper []byte, extra, user, pass string) (*format.Record, error) {
	extraIV, userIV, passIV, err := s.fieldIVs(pepper)
	if err != nil {
		return nil, err
	}

	r := &format.Record{Pepper: pepper}

	if r.Extra, err = s.block.Encrypt([]byte(extra), extraIV); err != nil {
		return nil, errors.Wrap(err, "unable to encrypt extra")
	}

	if r.User, err = s.block.Encrypt([]byte(user), userIV); err != nil {
		return nil, errors.Wrap(err, "unable to encrypt user")
	}

	if r.Pass, err = s.stream.Encrypt([]byte(pass), passIV); err != nil {
		return nil, errors.Wrap(err, "unable to encrypt pass")
	}

	return r, nil
}

func (s *session) decryptRecord(r *format.Record) (PlainRecord, error) {
	extraIV, userIV, passIV, err := s.fieldIVs(r.Pepper)
	if err != nil {
		return PlainRecord{}, err
	}

	extra, err := s.block.Decrypt(r.Extra, extraIV)
	if err != nil {
		return PlainRecord{}, errors.Wrapf(ErrDecryption, "record %v: extra: %v", r.PepperString(), err)
	}

	user, err := s.block.Decrypt(r.User, userIV)
	if err != nil {
		return PlainRecord{}, errors.Wrapf(ErrDecryption, "record %v: user: %v", r.PepperString(), err)
	}

	pass, err := s.stream.Decrypt(r.Pass, passIV)
	if err != nil {
		return PlainRecord{}, errors.Wrapf(ErrDecryption, "record %v: pass: %v", r.PepperString(), err)
	}

	return PlainRecord{
		ID:    r.PepperString(),
		Extra: string(extra),
		User:  string(user),
		Pass:  string(pass),
	}, nil
}

func (s *session) close() {
	crypto.Wipe(s.masterKey)
	crypto.Wipe(s.seed)
	crypto.Wipe(s.seedPass)
}
