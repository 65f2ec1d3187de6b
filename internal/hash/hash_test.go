package hash

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_HashAndVerify(t *testing.T) {
	t.Parallel()

	b := Bcrypt{Cost: bcrypt.MinCost}
	h, err := b.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", h)
	assert.True(t, IsBcrypt(h))

	assert.True(t, b.Verify(h, "secret1"))
	assert.False(t, b.Verify(h, "secret2"))
	assert.False(t, b.Verify("garbage", "secret1"))

	_, err = b.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestBcrypt_LongPasswords(t *testing.T) {
	t.Parallel()

	b := Bcrypt{Cost: bcrypt.MinCost}
	long := strings.Repeat("a", 80)

	h, err := b.Hash(long)
	require.NoError(t, err)
	assert.True(t, b.Verify(h, long))
	assert.False(t, b.Verify(h, strings.Repeat("a", 79)))
	assert.False(t, b.Verify(h, strings.Repeat("a", 72)))
	assert.False(t, b.Verify(h, long+"b"))

	exact := strings.Repeat("z", 72)
	h, err = b.Hash(exact)
	require.NoError(t, err)
	assert.True(t, b.Verify(h, exact))
}

func TestArgon2id_HashAndVerify(t *testing.T) {
	t.Parallel()

	a := Argon2id{Time: 1, Memory: 8 * 1024, Threads: 1}
	h, err := a.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h, "$argon2id$v=19$m=8192,t=1,p=1$"))

	assert.True(t, a.Verify(h, "secret1"))
	assert.False(t, a.Verify(h, "secret2"))

	for _, bad := range []string{
		"",
		"$argon2id$",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=0$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=4294967295,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=255$c2FsdA$aGFzaA",
	} {
		assert.False(t, a.Verify(bad, "secret1"), bad)
	}
}

func TestAuto_VerifiesEitherFormat(t *testing.T) {
	t.Parallel()

	bh, err := Bcrypt{Cost: bcrypt.MinCost}.Hash("pw")
	require.NoError(t, err)
	ah, err := Argon2id{Time: 1, Memory: 8 * 1024, Threads: 1}.Hash("pw")
	require.NoError(t, err)

	auto := NewAuto(Bcrypt{Cost: bcrypt.MinCost})
	assert.True(t, auto.Verify(bh, "pw"))
	assert.True(t, auto.Verify(ah, "pw"))
	assert.False(t, auto.Verify("$md5$whatever", "pw"))

	h, err := auto.Hash("pw")
	require.NoError(t, err)
	assert.True(t, IsBcrypt(h))
}

func TestNew(t *testing.T) {
	t.Parallel()

	a, err := New("argon2id", 0)
	require.NoError(t, err)
	assert.IsType(t, Argon2id{}, a.Primary)

	_, err = New("md5", 0)
	assert.Error(t, err)
}

type slowAlg struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *slowAlg) Hash(password string) (string, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return "h:" + password, nil
}

func (s *slowAlg) Verify(hash, password string) bool {
	return hash == "h:"+password
}

func TestBounded_LimitsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	alg := &slowAlg{}
	var observed atomic.Int32
	b := NewBounded(alg, 2, WithObserver(func(op string, d time.Duration) { observed.Add(1) }))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Hash(context.Background(), "pw")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, alg.maxSeen.Load(), int32(2))
	assert.EqualValues(t, 8, observed.Load())

	ok, err := b.Verify(context.Background(), "h:pw", "pw")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBounded_ContextCanceledWhileWaiting(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewBounded(&slowAlg{}, 1)
	require.NoError(t, b.sem.Acquire(context.Background(), 1))
	defer b.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Hash(ctx, "pw")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	ok, err := b.Verify(ctx, "h:pw", "pw")
	assert.Error(t, err)
	assert.False(t, ok)
}
