package performance

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"licensegate/internal/app"
	"licensegate/internal/config"
	"licensegate/internal/license"
	"licensegate/internal/shared/testutil"
)

const (
	MaxLatency     = 250 * time.Millisecond
	RequestsPerRun = 2000
	benchmarkHwid  = testutil.FixtureHardwareID
)

var ConcurrencyLevels = []int{1, 10, 50, 100}

var testNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

func newVerifier(tb testing.TB) (*license.Verifier, *testutil.LicenseTestFixtures) {
	fx := testutil.NewLicenseTestFixtures(tb, testNow)
	v := license.NewVerifier(fx.PublicKey,
		license.WithClock(fx.Clock()),
		license.WithHardwareIdentity(testutil.HardwareID(benchmarkHwid)),
	)
	return v, fx
}

func newServer(t *testing.T) (*httptest.Server, *testutil.LicenseTestFixtures) {
	t.Helper()
	fx := testutil.NewLicenseTestFixtures(t, testNow)

	cfg := config.Default()
	cfg.License.PublicKey = fx.PublicKey.String()
	cfg.Security.RateLimit.Enabled = false

	a, err := app.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)),
		app.WithClock(fx.Clock()),
		app.WithHardwareIdentity(testutil.HardwareID(benchmarkHwid)),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(a.Router)
	t.Cleanup(func() {
		srv.Close()
		_ = a.OTelProviders.Shutdown(context.Background())
	})
	return srv, fx
}

func BenchmarkVerify(b *testing.B) {
	v, fx := newVerifier(b)

	cases := map[string]string{
		"valid":    fx.ValidToken(),
		"tampered": fx.TamperedToken(),
		"expired":  fx.ExpiredToken(),
	}
	for name, token := range cases {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = v.Verify(token)
			}
		})
	}
}

func BenchmarkVerifyParallel(b *testing.B) {
	v, fx := newVerifier(b)
	token := fx.ValidToken()

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := v.Verify(token); err != nil {
				b.Error(err)
			}
		}
	})
}

func TestVerifyLatency(t *testing.T) {
	v, fx := newVerifier(t)
	token := fx.ValidToken()

	var worst time.Duration
	for i := 0; i < 200; i++ {
		start := time.Now()
		_, err := v.Verify(token)
		require.NoError(t, err)
		if d := time.Since(start); d > worst {
			worst = d
		}
	}
	t.Logf("worst single verification: %s", worst)
	assert.Less(t, worst, MaxLatency)
}

func TestVerifyEndpointThroughput(t *testing.T) {
	if testing.Short() {
		t.Skip("throughput test skipped in short mode")
	}

	srv, fx := newServer(t)
	body := []byte(`{"license":"` + fx.ValidToken() + `"}`)
	client := srv.Client()

	for _, workers := range ConcurrencyLevels {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			var next, failed atomic.Int64
			start := time.Now()

			g, ctx := errgroup.WithContext(context.Background())
			for w := 0; w < workers; w++ {
				g.Go(func() error {
					for next.Add(1) <= RequestsPerRun {
						req, err := http.NewRequestWithContext(ctx, http.MethodPost,
							srv.URL+"/api/license/verify", bytes.NewReader(body))
						if err != nil {
							return err
						}
						req.Header.Set("Content-Type", "application/json")
						resp, err := client.Do(req)
						if err != nil {
							return err
						}
						_, _ = io.Copy(io.Discard, resp.Body)
						resp.Body.Close()
						if resp.StatusCode != http.StatusOK {
							failed.Add(1)
						}
					}
					return nil
				})
			}
			require.NoError(t, g.Wait())

			elapsed := time.Since(start)
			rps := float64(RequestsPerRun) / elapsed.Seconds()
			t.Logf("%d workers: %d requests in %s (%.0f req/s)", workers, RequestsPerRun, elapsed, rps)

			assert.Zero(t, failed.Load())
		})
	}
}
