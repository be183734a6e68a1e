package session

// Connector is something whose lifetime follows the signed-in user, such as
// the notification channel.
type Connector interface {
	Connect(userID string) error
	Disconnect() error
}

// Purger drops per-user cached data.
type Purger interface {
	Purge()
}

// Bind connects c whenever the session signs in and disconnects it on sign
// out. Cached data in purgers is dropped on sign out. The current state is
// applied immediately. The returned function detaches the binding.
func (s *Session) Bind(c Connector, purgers ...Purger) func() {
	apply := func(st State) {
		if st.Authenticated {
			if err := c.Connect(st.User.ID); err != nil {
				s.logger.Warn("Connect on sign in failed", "error", err)
			}
			return
		}
		if err := c.Disconnect(); err != nil {
			s.logger.Warn("Disconnect on sign out failed", "error", err)
		}
		for _, p := range purgers {
			p.Purge()
		}
	}

	unsubscribe := s.Subscribe(apply)
	if user, ok := s.User(); ok {
		apply(State{Authenticated: true, User: user})
	}
	return unsubscribe
}
