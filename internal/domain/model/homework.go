package model

// HomeworkRecord — запись домашнего задания, которую редактирует оператор
// и отдаёт mock API. Живёт только в памяти процесса.
type HomeworkRecord struct {
	// ID — стабильный идентификатор, выдаётся при создании
	ID string
	// Name — название задания
	Name string
	// LessonName — название урока
	LessonName string
	// TargetURL — адрес, который встраивается во iframe детального ответа
	TargetURL string
}
