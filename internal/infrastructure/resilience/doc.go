/*
Package resilience provides a circuit breaker for calls to the upstream
assistant service.

# Overview

The breaker prevents a failing upstream from being hammered with requests
that cannot succeed. After a run of consecutive failures it opens and
rejects calls immediately; after a cooldown it admits a limited number of
probe calls and closes again once they succeed.

# Usage

	breaker := resilience.New("assistant", resilience.Settings{
		Threshold: 5,
		Cooldown:  30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	err := breaker.Do(func() error {
		return client.Call(ctx)
	})

# States

	Closed --[failures]-> Open --[cooldown]-> Half-Open --[probes succeed]-> Closed
	                                              |
	                                        [probe fails]
	                                              |
	                                              v
	                                            Open
*/
package resilience
