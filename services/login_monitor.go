package services

import (
	"log"
	"sync"
	"time"
)

const (
	loginFailureWindow    = 10 * time.Minute
	loginFailureThreshold = 5
	loginAlertCooldown    = time.Hour
	maxLoginAlerts        = 100
)

// LoginMonitor counts rejected sign-ins per client IP and raises an alert
// when one IP keeps failing inside the window.
type LoginMonitor struct {
	mu       sync.Mutex
	now      func() time.Time
	failures map[string][]time.Time
	alerted  map[string]time.Time
	alerts   []LoginAlert
}

// LoginAlert is one raised alert, newest first in Alerts
type LoginAlert struct {
	Timestamp time.Time
	IP        string
	Username  string
	Attempts  int
}

func NewLoginMonitor() *LoginMonitor {
	return &LoginMonitor{
		now:      time.Now,
		failures: make(map[string][]time.Time),
		alerted:  make(map[string]time.Time),
	}
}

// Failed records a rejected sign-in and reports whether it raised an alert.
// At most one alert per IP is raised per cooldown.
func (m *LoginMonitor) Failed(ip, username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	recent := m.failures[ip][:0]
	for _, t := range m.failures[ip] {
		if now.Sub(t) < loginFailureWindow {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	m.failures[ip] = recent

	if len(recent) < loginFailureThreshold {
		return false
	}
	if last, ok := m.alerted[ip]; ok && now.Sub(last) < loginAlertCooldown {
		return false
	}

	m.alerted[ip] = now
	m.alerts = append([]LoginAlert{{Timestamp: now, IP: ip, Username: username, Attempts: len(recent)}}, m.alerts...)
	if len(m.alerts) > maxLoginAlerts {
		m.alerts = m.alerts[:maxLoginAlerts]
	}
	log.Printf("[SECURITY ALERT] %d failed sign-ins from IP %s (last user %q)", len(recent), ip, username)
	return true
}

// Succeeded forgets the failures of ip
func (m *LoginMonitor) Succeeded(ip string) {
	m.mu.Lock()
	delete(m.failures, ip)
	m.mu.Unlock()
}

// Alerts returns a copy of the raised alerts, newest first
func (m *LoginMonitor) Alerts() []LoginAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LoginAlert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Sweep drops failure lists and cooldowns that have lapsed and returns how
// many IPs were forgotten.
func (m *LoginMonitor) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	dropped := 0
	for ip, attempts := range m.failures {
		if len(attempts) == 0 || now.Sub(attempts[len(attempts)-1]) >= loginFailureWindow {
			delete(m.failures, ip)
			dropped++
		}
	}
	for ip, last := range m.alerted {
		if now.Sub(last) >= loginAlertCooldown {
			delete(m.alerted, ip)
		}
	}
	return dropped
}
