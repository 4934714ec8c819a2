package bot

import "sync"

// State — в каком шаге диалога находится identity. Одна identity — ровно
// одно состояние; переход всегда заменяет сессию целиком.
type State int

const (
	StateNeutral State = iota
	StateAwaitingUserID
	StateAwaitingDay
	StateAwaitingTime
	StateAwaitingMessageChoice
	StateAwaitingCustomMessage
	StateAwaitingUnlinkTarget
	StateAwaitingAlias
	StateAwaitingDefaultMessage
	StateChattingAsAdmin
	StateChattingAsUser
)

// Session — волатильный контекст диалога: состояние плюс частично
// введённые данные. Не переживает рестарт и не должен.
type Session struct {
	State State

	// онбординг
	TargetUserID int64
	TargetName   string
	Day          int
	Clock        string

	// чат: собеседник (для пользователя — админ, для админа — пользователь)
	PeerID int64
}

// Sessions хранит контексты диалогов по identity. Кроме самих сессий держит
// по-identity мьютексы: два конкурентных события одной identity не должны
// перечередовать свой read-modify-write контекста.
type Sessions struct {
	mu    sync.Mutex
	m     map[int64]Session
	locks map[int64]*sync.Mutex
}

func NewSessions() *Sessions {
	return &Sessions{
		m:     make(map[int64]Session),
		locks: make(map[int64]*sync.Mutex),
	}
}

// LockIdentity сериализует обработку событий одной identity. Разные
// identity друг друга не блокируют.
func (s *Sessions) LockIdentity(id int64) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Sessions) Get(id int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[id]
}

func (s *Sessions) Set(id int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = sess
}

// Reset возвращает identity в нейтральное состояние, отбрасывая частично
// введённые данные.
func (s *Sessions) Reset(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
}
