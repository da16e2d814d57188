package models

import "time"

type ImportFormat string

const (
	ImportXLSX ImportFormat = "xlsx"
	ImportCSV  ImportFormat = "csv"
	ImportYAML ImportFormat = "yaml"
	ImportJSON ImportFormat = "json"
	ImportZIP  ImportFormat = "zip"
)

type ImportValidationError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

type ImportSummary struct {
	QuizID           uint                    `json:"quiz_id"`
	Format           ImportFormat            `json:"format"`
	TotalRows        int                     `json:"total_rows"`
	SuccessCount     int                     `json:"success_count"`
	ErrorCount       int                     `json:"error_count"`
	ImagesUploaded   int                     `json:"images_uploaded"`
	TotalPoints      int                     `json:"total_points"`
	Replaced         bool                    `json:"replaced"`
	Preview          bool                    `json:"preview"`
	TypeCounts       map[QuestionType]int    `json:"type_counts"`
	Errors           []ImportValidationError `json:"errors"`
	ProcessingTime   time.Duration           `json:"processing_time"`
	CreatedQuestions []uint                  `json:"created_questions"`

	// Sample holds the first parsed questions when previewing
	Sample []Question `json:"sample,omitempty"`
}

// QuizDefinition is the document form of a quiz used by yaml/json import.
type QuizDefinition struct {
	Title       string               `yaml:"title" json:"title"`
	Description string               `yaml:"description" json:"description"`
	CourseID    *uint                `yaml:"course_id" json:"course_id"`
	Settings    *QuizSettings        `yaml:"settings" json:"settings"`
	Questions   []QuestionDefinition `yaml:"questions" json:"questions"`
}

type QuestionDefinition struct {
	Number      int                `yaml:"number" json:"number"`
	Type        string             `yaml:"type" json:"type"` // any accepted alias
	Text        string             `yaml:"text" json:"text"`
	Image       string             `yaml:"image" json:"image"`
	Points      *int               `yaml:"points" json:"points"`
	Options     []OptionDefinition `yaml:"options" json:"options"`
	Accepted    []string           `yaml:"accepted" json:"accepted"`
	Explanation string             `yaml:"explanation" json:"explanation"`
}

type OptionDefinition struct {
	Label   string `yaml:"label" json:"label"`
	Text    string `yaml:"text" json:"text"`
	Correct bool   `yaml:"correct" json:"correct"`
}
