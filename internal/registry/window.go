package registry

// IsMarketOpen reports whether the current time falls inside the asset's
// session window, inclusive at both ends. The window does not recur; the
// operator rewrites it ahead of each session. Plain crypto assets and
// unknown ids read a zero window and are therefore closed.
func (s *Service) IsMarketOpen(id uint64) bool {
	s.mu.RLock()
	slot, exists := s.slots[id]
	var window MarketWindow
	if exists && slot.timed != nil {
		window = slot.timed.Window
	}
	s.mu.RUnlock()

	now := uint64(s.now().Unix())
	return now >= window.OpenTimestamp && now <= window.OpenTimestamp+window.DurationSeconds
}
