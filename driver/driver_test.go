package driver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTopology(t *testing.T) {
	tests := []struct {
		in      string
		want    Topology
		wantErr bool
	}{
		{"", Standalone, false},
		{"standalone", Standalone, false},
		{"Sentinel", Sentinel, false},
		{"CLUSTER", Cluster, false},
		{"ring", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTopology(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, must(ParseTopology(got.String())))
		})
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{"no address", Options{}, "no address"},
		{"standalone with two addresses", Options{Addrs: []string{"a:1", "b:1"}}, "one address"},
		{"sentinel without master", Options{Topology: Sentinel, Addrs: []string{"s:26379"}}, "master name"},
		{"cluster with db", Options{Topology: Cluster, Addrs: []string{"c:7000"}, DB: 2}, "database 0"},
		{"unknown topology", Options{Topology: Topology(9), Addrs: []string{"a:1"}}, "unknown topology"},
		{"standalone", Options{Addrs: []string{"a:1"}}, ""},
		{"sentinel", Options{Topology: Sentinel, Addrs: []string{"s:1", "s:2"}, MasterName: "mymaster"}, ""},
		{"cluster", Options{Topology: Cluster, Addrs: []string{"c:1", "c:2", "c:3"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOptionsValidateDefaults(t *testing.T) {
	o := Options{Addrs: []string{"localhost:6379"}}
	require.NoError(t, o.Validate())

	assert.Equal(t, Standalone, o.Topology)
	assert.Equal(t, DefaultDialTimeout, o.DialTimeout)
	assert.Equal(t, DefaultTimeout, o.ReadTimeout)
	assert.Equal(t, DefaultTimeout, o.WriteTimeout)
	assert.Equal(t, DefaultPoolSize, o.PoolSize)
	assert.NotNil(t, o.Logger)

	o = Options{Addrs: []string{"localhost:6379"}, ReadTimeout: time.Second, PoolSize: 3}
	require.NoError(t, o.Validate())
	assert.Equal(t, time.Second, o.ReadTimeout)
	assert.Equal(t, 3, o.PoolSize)
}

func TestRegistry(t *testing.T) {
	var got Options
	Register("registry-test", func(opts Options) (Driver, error) {
		got = opts
		return nil, nil
	})

	assert.Contains(t, Drivers(), "registry-test")
	assert.Panics(t, func() { Register("registry-test", func(Options) (Driver, error) { return nil, nil }) })
	assert.Panics(t, func() { Register("registry-nil", nil) })

	_, err := Open("registry-test", Options{Addrs: []string{"localhost:6379"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultPoolSize, got.PoolSize, "Open validates before calling the factory")

	_, err = Open("registry-test", Options{})
	assert.ErrorContains(t, err, "no address")

	_, err = Open("missing", Options{Addrs: []string{"localhost:6379"}})
	assert.ErrorContains(t, err, "unknown driver")
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "pipeline", Pipeline.String())
	assert.Equal(t, "transaction", Transaction.String())
	assert.Equal(t, "unknown", Mode(0).String())
}
