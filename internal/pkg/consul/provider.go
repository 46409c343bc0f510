package consul

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/hashicorp/consul/api"
	"go.uber.org/multierr"

	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/analyzer"
	aapi "github.com/priyamsameer95-sys/hr-screening101/internal/pkg/analyzer/api"
)

const (
	analyzeKey   = "analyzeURL"
	isHTTPSSLKey = "HTTPSSL"
	priorityKey  = "priority"
)

// Provider keeps an up to date list of healthy analysis services from consul
type Provider struct {
	consul  *api.Client
	srvName string

	lock      *sync.RWMutex
	analyzers []*anWrap
}

type anWrap struct {
	real     aapi.Analyzer
	srv      string
	key      string
	priority float64
}

// NewProvider creates consul based analyzer provider
func NewProvider(cfg *api.Config, srvNameInConsul string) (*Provider, error) {
	c, err := api.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if srvNameInConsul == "" {
		return nil, fmt.Errorf("no srv name")
	}
	return newProvider(c, srvNameInConsul), nil
}

func newProvider(c *api.Client, srvNameInConsul string) *Provider {
	goapp.Log.Info().Str("service", srvNameInConsul).Msg("cfg: srv name in consul")
	return &Provider{consul: c, srvName: srvNameInConsul, lock: &sync.RWMutex{}, analyzers: make([]*anWrap, 0)}
}

// Get returns an analyzer instance. With allowNew it may pick a fresh one
// by priority, otherwise only an instance matching srv is returned
func (c *Provider) Get(srv string, allowNew bool) (aapi.Analyzer, string, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if !allowNew {
		for _, a := range c.analyzers {
			if a.srv == srv {
				return a.real, a.srv, nil
			}
		}
		return nil, "", fmt.Errorf("no active srv `%s`", srv)
	}
	if len(c.analyzers) == 0 {
		return nil, "", nil
	}
	// try return same
	for _, a := range c.analyzers {
		if a.srv == srv {
			return a.real, a.srv, nil
		}
	}
	if len(c.analyzers) == 1 {
		a := c.analyzers[0]
		return a.real, a.srv, nil
	}
	// else random select by priority
	i, err := getRandomByPriority(c.analyzers)
	if err != nil {
		return nil, "", fmt.Errorf("can't select analyzer: %v", err)
	}
	if i < len(c.analyzers) {
		a := c.analyzers[i]
		return a.real, a.srv, nil
	}
	return nil, "", nil
}

func getRandomByPriority(wraps []*anWrap) (int, error) {
	prMax := 0.0
	for _, a := range wraps {
		prMax += a.priority
	}
	if prMax < 0.1 {
		return 0, fmt.Errorf("wrong priority sum found %f", prMax)
	}
	rnd := rand.Float64() * prMax
	prMax = 0.0
	for i, a := range wraps {
		prMax += a.priority
		if prMax > rnd {
			return i, nil
		}
	}
	return len(wraps), nil
}

// StartRegistryLoop polls consul for healthy analyzer instances
func (c *Provider) StartRegistryLoop(ctx context.Context, checkInterval time.Duration) (<-chan struct{}, error) {
	goapp.Log.Info().Msgf("Starting consul service check every %v", checkInterval)
	res := make(chan struct{}, 2)
	go func() {
		defer close(res)
		c.serviceLoop(ctx, checkInterval)
	}()
	return res, nil
}

func (c *Provider) serviceLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	// run on startup
	if err := c.check(ctx); err != nil {
		goapp.Log.Error().Err(err).Send()
	}
	for {
		select {
		case <-ticker.C:
			if err := c.check(ctx); err != nil {
				goapp.Log.Error().Err(err).Send()
			}
		case <-ctx.Done():
			ticker.Stop()
			goapp.Log.Info().Msgf("Stopped consul timer service")
			return
		}
	}
}

func (c *Provider) check(ctx context.Context) error {
	ctxInt, cf := context.WithTimeout(ctx, time.Second*5)
	defer cf()
	srvs, _, err := c.consul.Health().Service(c.srvName, "", true, (&api.QueryOptions{}).WithContext(ctxInt))
	if err != nil {
		return fmt.Errorf("can't invoke consul: %v", err)
	}
	return c.updateSrv(srvs)
}

func (c *Provider) updateSrv(srvs []*api.ServiceEntry) error {
	goapp.Log.Info().Msgf("got %d services from consul", len(srvs))
	c.lock.Lock()
	defer c.lock.Unlock()
	ms := map[string]*api.ServiceEntry{}
	for _, s := range srvs {
		ms[key(s)] = s
	}
	kept := []*anWrap{}
	for _, s := range c.analyzers {
		if v, ok := ms[s.srv]; ok && s.key == fullKey(v) {
			kept = append(kept, s)
			delete(ms, s.srv)
			continue
		}
		goapp.Log.Warn().Str("service", s.srv).Msgf("dropped analyzer")
	}
	if len(kept) == len(c.analyzers) && len(ms) == 0 {
		return nil
	}
	c.analyzers = kept
	var err error
	for v, k := range ms {
		a, errInt := newAnalyzer(v, k)
		if errInt != nil {
			err = multierr.Append(err, errInt)
			continue
		}
		c.analyzers = append(c.analyzers, a)
		goapp.Log.Info().Str("service", v).Float64("priority", a.priority).Msg("added analyzer")
	}
	return err
}

func newAnalyzer(v string, s *api.ServiceEntry) (*anWrap, error) {
	a, err := analyzer.NewClient(getURL(s, analyzeKey))
	if err != nil {
		return nil, fmt.Errorf("can't init analyzer for %s: %v", v, err)
	}
	priority, err := getPriority(s)
	if err != nil {
		return nil, fmt.Errorf("can't init analyzer for %s: %v", v, err)
	}
	res := &anWrap{real: a, srv: v, key: fullKey(s), priority: priority}
	return res, nil
}

func getPriority(s *api.ServiceEntry) (float64, error) {
	v, ok := s.Service.Meta[priorityKey]
	if !ok {
		return 1, nil
	}
	res, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("can't parse priority '%s': %v", v, err)
	}
	if res < 0.5 || res > 50 {
		return 0, fmt.Errorf("wrong priority value '%f', not in [0.5, 50]", res)
	}
	return res, nil
}

func getURL(s *api.ServiceEntry, key string) string {
	v, ok := s.Service.Meta[key]
	if !ok {
		return ""
	}
	ssl := ""
	if isSSL, ok := s.Service.Meta[isHTTPSSLKey]; ok {
		if boolValue, err := strconv.ParseBool(isSSL); err == nil && boolValue {
			ssl = "s"
		}
	}
	return fmt.Sprintf("http%s://%s:%d/%s", ssl, s.Service.Address, s.Service.Port, v)
}

func key(s *api.ServiceEntry) string {
	return fmt.Sprintf("%s:%d", s.Service.Address, s.Service.Port)
}

func fullKey(s *api.ServiceEntry) string {
	res := strings.Builder{}
	for _, key := range [...]string{analyzeKey, isHTTPSSLKey, priorityKey} {
		v, ok := s.Service.Meta[key]
		if ok {
			res.WriteString(key + ":" + v + ",")
		}
	}
	return res.String()
}
