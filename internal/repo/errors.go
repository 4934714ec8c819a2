package repo

import "errors"

var (
	// ErrAlreadySubmittedToday — пользователь уже отправил неподтверждённый
	// платёж за сегодня.
	ErrAlreadySubmittedToday = errors.New("payment already submitted today")

	// ErrAlreadyProcessed — платёж уже подтверждён или отклонён другим
	// действием (condition update не задел ни одной строки).
	ErrAlreadyProcessed = errors.New("payment already processed")

	// ErrSessionNotActive — пересылка без живой сессии чата.
	ErrSessionNotActive = errors.New("chat session not active")
)
