// dto.go — тела ответов эмулируемой платформы и преобразования
// доменных моделей в них.
package handlers

import (
	"fmt"
	"html"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/classroom-mock/internal/domain/model"
)

// Фиксированные значения mock-ответов.
const (
	mockUserID        = "student001"
	mockClassroomID   = "CLASSROOM001"
	mockClassroomName = "QRQLL 模拟教室"
	mockClassName     = "QRQLL 模拟班级"
	mockSocketPort    = "9000"
	mockLessonName    = "QRQLL 模拟课程"
	mockTeacherName   = "QRQLL 模拟教师"

	// Статусы домашнего задания: опубликовано, не сдано, не проверено.
	homeworkPublished    = 1
	homeworkNotSubmitted = 0
	homeworkNotCorrected = 0
	homeworkTypeWeb      = 1

	timeLayout = "2006-01-02 15:04:05"
)

// SchoolInfo — result для getBindedSchoolInfo.
type SchoolInfo struct {
	SchoolID   string `json:"schoolId"`
	SchoolName string `json:"schoolName"`
}

// Account — result для tokenValid и j_spring_security_check.
type Account struct {
	UserID            string `json:"userId"`
	SchoolKey         string `json:"schoolKey"`
	SchoolName        string `json:"schoolName"`
	ClassroomID       string `json:"classroomId"`
	ClassroomName     string `json:"classroomName"`
	ClassName         string `json:"className"`
	LoginIP           string `json:"loginIp"`
	ClassInSocketPort string `json:"classInSocketPort"`
	Token             string `json:"token"`
	IsBoxClass        bool   `json:"isBoxClass"`
	IsAirClass        bool   `json:"isAirClass"`
}

// Alive — result для pub/alive.
type Alive struct {
	Alive bool `json:"alive"`
}

// Page — страница в формате платформы: элементы лежат в data.
type Page[T any] struct {
	Data        []T `json:"data"`
	PageCount   int `json:"pageCount"`
	PageIndex   int `json:"pageIndex"`
	PageSize    int `json:"pageSize"`
	RecordCount int `json:"recordCount"`
}

// ShareFile — файл в листинге selectShareFileList.
type ShareFile struct {
	FileID      string `json:"fileId"`
	FileName    string `json:"fileName"`
	ShareTime   string `json:"shareTime"`
	Size        string `json:"size"`
	LessonName  string `json:"lessonName"`
	Suffix      string `json:"suffix"`
	FileURL     string `json:"fileUrl"`
	TeacherName string `json:"teacherName"`
}

// HomeworkSummary — элемент selectPadHomeworkList.
type HomeworkSummary struct {
	HomeworkID    string `json:"homeworkId"`
	HomeworkName  string `json:"homeworkName"`
	LessonName    string `json:"lessonName"`
	TeacherName   string `json:"teacherName"`
	PublishTime   string `json:"publishTime"`
	HomeworkType  int    `json:"homeworkType"`
	PublishStatus int    `json:"publishStatus"`
	SubmitStatus  int    `json:"submitStatus"`
	CorrectStatus int    `json:"correctStatus"`
}

// HomeworkDetail — result для selectPadHomeworkDetail.
type HomeworkDetail struct {
	HomeworkSummary
	Content HomeworkContent `json:"content"`
}

// HomeworkContent — встраиваемое содержимое задания.
type HomeworkContent struct {
	ContentType string `json:"contentType"`
	TargetURL   string `json:"targetUrl"`
	HTML        string `json:"html"`
}

func toPage[T, U any](res model.PageResult[T], convert func(T) U) Page[U] {
	data := make([]U, 0, len(res.Items))
	for _, item := range res.Items {
		data = append(data, convert(item))
	}
	return Page[U]{
		Data:        data,
		PageCount:   res.PageCount,
		PageIndex:   res.PageIndex,
		PageSize:    res.PageSize,
		RecordCount: res.RecordCount,
	}
}

func toShareFile(e model.FileEntry) ShareFile {
	return ShareFile{
		FileID:      e.ID,
		FileName:    e.Name,
		ShareTime:   e.ShareTimestamp,
		Size:        strconv.FormatInt(e.SizeBytes, 10),
		LessonName:  mockLessonName,
		Suffix:      e.Extension,
		FileURL:     "resources/" + e.RelativePath,
		TeacherName: mockTeacherName,
	}
}

func toHomeworkSummary(r model.HomeworkRecord) HomeworkSummary {
	return HomeworkSummary{
		HomeworkID:    r.ID,
		HomeworkName:  r.Name,
		LessonName:    r.LessonName,
		TeacherName:   mockTeacherName,
		PublishTime:   publishTime(r.ID),
		HomeworkType:  homeworkTypeWeb,
		PublishStatus: homeworkPublished,
		SubmitStatus:  homeworkNotSubmitted,
		CorrectStatus: homeworkNotCorrected,
	}
}

func toHomeworkDetail(r model.HomeworkRecord) HomeworkDetail {
	return HomeworkDetail{
		HomeworkSummary: toHomeworkSummary(r),
		Content: HomeworkContent{
			ContentType: "html",
			TargetURL:   r.TargetURL,
			HTML:        iframeSnippet(r.TargetURL),
		},
	}
}

// iframeSnippet — HTML, который клиент вставляет в страницу задания.
func iframeSnippet(targetURL string) string {
	return fmt.Sprintf(
		`<iframe src="%s" width="100%%" height="100%%" frameborder="0" allowfullscreen></iframe>`,
		html.EscapeString(targetURL),
	)
}

// publishTime берёт время создания из UUIDv7-идентификатора записи.
// Для пустой записи и чужих идентификаторов — пустая строка.
func publishTime(id string) string {
	u, err := uuid.Parse(id)
	if err != nil || u.Version() != 7 {
		return ""
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec).Format(timeLayout)
}
