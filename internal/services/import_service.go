package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/storage"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/SAP-F-2025/quiz-service/pkg/tracing"
)

// ImportService loads question banks from spreadsheets, definition documents
// and zip bundles with images
type ImportService interface {
	Import(ctx context.Context, req *ImportRequest, file io.Reader, filename string, requester Requester) (*models.ImportSummary, error)
}

type ImportMode string

const (
	ImportReplace ImportMode = "replace"
	ImportAppend  ImportMode = "append"
)

// ImportRequest targets an existing quiz when QuizID is set, otherwise a new
// draft quiz is created from Title (or the document title).
type ImportRequest struct {
	QuizID      *uint      `json:"quiz_id"`
	Title       string     `json:"title" form:"title" validate:"max=200"`
	Description string     `json:"description" form:"description" validate:"max=2000"`
	CourseID    *uint      `json:"course_id" form:"course_id"`
	Mode        ImportMode `json:"mode" form:"mode" validate:"omitempty,oneof=replace append"`
	Preview     bool       `json:"preview" form:"preview"`
}

const (
	MaxImportSize    = 20 << 20
	maxImageSize     = 2 << 20
	previewSampleLen = 3
)

// Sheet columns
const (
	colNumber      = "題號"
	colType        = "題型"
	colText        = "題目"
	colAnswer      = "正確答案"
	colPoints      = "分數"
	colExplanation = "解析"
	colImage       = "圖片檔名"
)

var (
	requiredColumns = []string{colNumber, colType, colText, colAnswer}
	optionColumns   = []string{"選項A", "選項B", "選項C", "選項D"}

	questionTypeAliases = map[string]models.QuestionType{
		"single":   models.QuestionSingle,
		"單選":       models.QuestionSingle,
		"單選題":      models.QuestionSingle,
		"multiple": models.QuestionMultiple,
		"多選":       models.QuestionMultiple,
		"多選題":      models.QuestionMultiple,
		"複選":       models.QuestionMultiple,
		"複選題":      models.QuestionMultiple,
		"fill":     models.QuestionFill,
		"填空":       models.QuestionFill,
		"填空題":      models.QuestionFill,
		"essay":    models.QuestionEssay,
		"問答":       models.QuestionEssay,
		"問答題":      models.QuestionEssay,
	}

	imageContentTypes = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".gif":  "image/gif",
	}

	bundleEntries = []string{"questions.xlsx", "questions.csv", "quiz.yaml", "quiz.yml", "quiz.json"}
)

// NormalizeQuestionType maps a type cell or document value onto a question type
func NormalizeQuestionType(v string) (models.QuestionType, bool) {
	t, ok := questionTypeAliases[strings.ToLower(strings.TrimSpace(v))]
	return t, ok
}

type importService struct {
	repo      repositories.Repository
	storage   storage.Provider
	quizzes   *quizLoader
	notifier  NotificationEventService
	logger    utils.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewImportService(
	repo repositories.Repository,
	provider storage.Provider,
	cacheService cache.CacheService,
	notifier NotificationEventService,
	logger utils.Logger,
	validator *validator.Validator,
	quizTTL time.Duration,
) ImportService {
	return &importService{
		repo:      repo,
		storage:   provider,
		quizzes:   newQuizLoader(repo.Quiz(), cacheService, quizTTL, logger),
		notifier:  notifier,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

// importDraft is one parsed question waiting for its image and a quiz
type importDraft struct {
	row      int
	image    string
	question models.Question
}

// importBundle is everything read out of one upload
type importBundle struct {
	format     models.ImportFormat
	definition *models.QuizDefinition
	drafts     []importDraft
	totalRows  int
	images     map[string][]byte
	errors     []models.ImportValidationError
}

// ===== IMPORT =====

func (s *importService) Import(ctx context.Context, req *ImportRequest, file io.Reader, filename string, requester Requester) (summary *models.ImportSummary, err error) {
	ctx, span := tracing.StartSpan(ctx, "quiz.import",
		attribute.String("import.filename", filename),
		attribute.Bool("import.preview", req.Preview))
	defer func() { tracing.EndSpan(span, err) }()

	s.logger.Info("Starting question import", "filename", filename, "user_id", requester.UserID, "preview", req.Preview)
	start := s.now()

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	mode := req.Mode
	if mode == "" {
		mode = ImportReplace
	}

	format, err := detectFormat(filename)
	if err != nil {
		return nil, err
	}

	target, err := s.resolveTarget(ctx, req, mode, requester)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxImportSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxImportSize {
		return nil, ErrFileTooLarge
	}

	bundle, err := s.parse(format, data)
	if err != nil {
		return nil, err
	}
	s.checkImages(bundle)

	summary = &models.ImportSummary{
		Format:     format,
		TotalRows:  bundle.totalRows,
		Preview:    req.Preview,
		TypeCounts: make(map[models.QuestionType]int),
		Errors:     bundle.errors,
	}
	if target != nil {
		summary.QuizID = target.ID
	}
	failedRows := make(map[int]bool)
	for _, e := range bundle.errors {
		if e.Row > 0 {
			failedRows[e.Row] = true
		}
	}
	summary.ErrorCount = len(failedRows)
	for _, d := range bundle.drafts {
		if failedRows[d.row] {
			continue
		}
		summary.SuccessCount++
		summary.TotalPoints += d.question.Points
		summary.TypeCounts[d.question.Type]++
	}
	if len(bundle.drafts) == 0 && len(bundle.errors) == 0 {
		summary.Errors = append(summary.Errors, models.ImportValidationError{
			Column: "file", Message: "no questions found", Code: "empty",
		})
	}

	if req.Preview {
		for i := 0; i < len(bundle.drafts) && i < previewSampleLen; i++ {
			summary.Sample = append(summary.Sample, bundle.drafts[i].question)
		}
		summary.ProcessingTime = s.now().Sub(start)
		return summary, nil
	}

	if len(summary.Errors) > 0 {
		s.logger.Warn("Question import rejected", "filename", filename, "errors", len(summary.Errors))
		summary.ProcessingTime = s.now().Sub(start)
		return summary, ErrImportFailed
	}

	if target == nil {
		target, err = s.createQuiz(ctx, req, bundle.definition, filename, requester)
		if err != nil {
			return nil, err
		}
		summary.QuizID = target.ID
	}

	uploaded, err := s.uploadImages(ctx, target.ID, bundle)
	if err != nil {
		return nil, err
	}
	summary.ImagesUploaded = uploaded

	questions := make([]models.Question, len(bundle.drafts))
	for i, d := range bundle.drafts {
		questions[i] = d.question
	}
	if mode == ImportAppend {
		err = s.repo.Question().AppendToQuiz(ctx, target.ID, questions)
	} else {
		err = s.repo.Question().ReplaceForQuiz(ctx, target.ID, questions)
		summary.Replaced = true
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save imported questions: %w", err)
	}
	for _, q := range questions {
		summary.CreatedQuestions = append(summary.CreatedQuestions, q.ID)
	}
	s.quizzes.invalidate(ctx, target.ID)

	summary.ProcessingTime = s.now().Sub(start)
	if s.notifier != nil {
		if err := s.notifier.NotifyQuizImported(ctx, summary, requester.UserID); err != nil {
			s.logger.Warn("Failed to publish quiz imported event", "quiz_id", target.ID, "error", err)
		}
	}

	s.logger.Info("Question import completed",
		"quiz_id", target.ID,
		"format", format,
		"success_count", summary.SuccessCount,
		"images_uploaded", summary.ImagesUploaded)
	return summary, nil
}

// ===== TARGET QUIZ =====

func (s *importService) resolveTarget(ctx context.Context, req *ImportRequest, mode ImportMode, requester Requester) (*models.Quiz, error) {
	if req.QuizID == nil {
		if !requester.Role.CanAuthor() {
			return nil, NewPermissionError(requester.UserID, 0, "quiz", "import", "only teachers can create quizzes")
		}
		return nil, nil
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, *req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if !requester.IsAdmin() && !(requester.Role.CanAuthor() && quiz.CreatedBy == requester.UserID) {
		return nil, NewPermissionError(requester.UserID, quiz.ID, "quiz", "import", "not the quiz owner")
	}
	if mode == ImportReplace && !req.Preview {
		hasAttempts, err := s.repo.Quiz().HasAttempts(ctx, quiz.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check quiz attempts: %w", err)
		}
		if hasAttempts {
			return nil, NewBusinessRuleError("questions_locked", "questions cannot be replaced once learners have attempted the quiz", map[string]any{"quiz_id": quiz.ID})
		}
	}
	return quiz, nil
}

func (s *importService) createQuiz(ctx context.Context, req *ImportRequest, def *models.QuizDefinition, filename string, requester Requester) (*models.Quiz, error) {
	quiz := &models.Quiz{
		Title:     strings.TrimSpace(req.Title),
		CourseID:  req.CourseID,
		Status:    models.QuizStatusDraft,
		Settings:  models.DefaultQuizSettings(),
		CreatedBy: requester.UserID,
	}
	if req.Description != "" {
		quiz.Description = &req.Description
	}
	if def != nil {
		if quiz.Title == "" {
			quiz.Title = strings.TrimSpace(def.Title)
		}
		if quiz.Description == nil && def.Description != "" {
			quiz.Description = &def.Description
		}
		if quiz.CourseID == nil {
			quiz.CourseID = def.CourseID
		}
		if def.Settings != nil {
			if errs := s.validator.Business().ValidateSettings(*def.Settings); len(errs) > 0 {
				return nil, errs
			}
			quiz.Settings = *def.Settings
		}
	}
	if quiz.Title == "" {
		quiz.Title = strings.TrimSuffix(path.Base(filepath.ToSlash(filename)), filepath.Ext(filename))
	}
	if err := s.validator.ValidateStruct(quiz); err != nil {
		return nil, err
	}

	if err := s.repo.Quiz().Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}
	s.logger.Info("Quiz created for import", "quiz_id", quiz.ID, "title", quiz.Title)
	return quiz, nil
}

// ===== PARSING =====

func detectFormat(filename string) (models.ImportFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return models.ImportXLSX, nil
	case ".csv":
		return models.ImportCSV, nil
	case ".yaml", ".yml":
		return models.ImportYAML, nil
	case ".json":
		return models.ImportJSON, nil
	case ".zip":
		return models.ImportZIP, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

func (s *importService) parse(format models.ImportFormat, data []byte) (*importBundle, error) {
	switch format {
	case models.ImportXLSX:
		rows, err := readSheetRows(data)
		if err != nil {
			return nil, err
		}
		return s.parseRows(format, rows)
	case models.ImportCSV:
		rows, err := readCSVRows(data)
		if err != nil {
			return nil, err
		}
		return s.parseRows(format, rows)
	case models.ImportYAML, models.ImportJSON:
		def, err := decodeDefinition(format, data)
		if err != nil {
			return nil, err
		}
		return s.parseDefinition(format, def), nil
	case models.ImportZIP:
		return s.parseBundle(data)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func readSheetRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fileError("cannot open Excel file: " + err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fileError("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	return rows, nil
}

func readCSVRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fileError("cannot read CSV: " + err.Error())
	}
	return rows, nil
}

func decodeDefinition(format models.ImportFormat, data []byte) (*models.QuizDefinition, error) {
	var def models.QuizDefinition
	if format == models.ImportYAML {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fileError("invalid YAML definition: " + err.Error())
		}
		return &def, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&def); err != nil {
		return nil, fileError("invalid JSON definition: " + err.Error())
	}
	return &def, nil
}

// parseRows reads a header row followed by one question per row. Row
// numbers in errors are 1-based sheet rows, so the first question is row 2.
func (s *importService) parseRows(format models.ImportFormat, rows [][]string) (*importBundle, error) {
	if len(rows) < 2 {
		return nil, fileError("file must have a header row and at least one question")
	}

	header := make(map[string]int)
	for i, h := range rows[0] {
		header[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fileError("missing required columns: " + strings.Join(missing, ", "))
	}

	bundle := &importBundle{format: format}
	for i, record := range rows[1:] {
		if blankRow(record) {
			continue
		}
		rowNum := i + 2
		bundle.totalRows++

		draft, errs := s.parseRow(record, header, rowNum, len(bundle.drafts)+1)
		if len(errs) > 0 {
			bundle.errors = append(bundle.errors, errs...)
			continue
		}
		bundle.drafts = append(bundle.drafts, *draft)
	}
	return bundle, nil
}

func (s *importService) parseRow(record []string, header map[string]int, rowNum, number int) (*importDraft, []models.ImportValidationError) {
	get := func(name string) string {
		if idx, ok := header[name]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}
	rowErr := func(column, message, value, code string) models.ImportValidationError {
		return models.ImportValidationError{Row: rowNum, Column: column, Message: message, Value: value, Code: code}
	}

	var errs []models.ImportValidationError
	typeCell := get(colType)
	qType, ok := NormalizeQuestionType(typeCell)
	if !ok {
		errs = append(errs, rowErr(colType, "unknown question type", typeCell, "invalid_type"))
	}
	text := get(colText)
	if text == "" {
		errs = append(errs, rowErr(colText, "is required", "", "required"))
	}
	points := defaultQuestionPoints
	if cell := get(colPoints); cell != "" {
		p, err := strconv.Atoi(cell)
		if err != nil || p < 0 {
			errs = append(errs, rowErr(colPoints, "must be a non-negative whole number", cell, "invalid_points"))
		}
		points = p
	}
	if len(errs) > 0 {
		return nil, errs
	}

	q := models.Question{Number: number, Type: qType, Text: text, Points: points}
	if explanation := get(colExplanation); explanation != "" {
		q.Explanation = &explanation
	}

	answer := get(colAnswer)
	switch qType {
	case models.QuestionSingle, models.QuestionMultiple:
		var options []models.QuestionOption
		for i, col := range optionColumns {
			if optText := get(col); optText != "" {
				options = append(options, models.QuestionOption{Label: string(rune('A' + i)), Text: optText})
			}
		}
		labels := splitAnswerLabels(answer)
		if len(labels) == 0 {
			return nil, []models.ImportValidationError{rowErr(colAnswer, "is required", answer, "required")}
		}
		if qType == models.QuestionSingle && len(labels) != 1 {
			return nil, []models.ImportValidationError{rowErr(colAnswer, "single choice needs exactly one answer", answer, "invalid_answer")}
		}
		for _, label := range labels {
			found := false
			for i := range options {
				if options[i].Label == label {
					options[i].IsCorrect = true
					found = true
				}
			}
			if !found {
				errs = append(errs, rowErr(colAnswer, "answer "+label+" has no matching option", answer, "invalid_answer"))
			}
		}
		if len(errs) > 0 {
			return nil, errs
		}
		if err := q.SetOptions(options); err != nil {
			return nil, []models.ImportValidationError{rowErr(colAnswer, err.Error(), answer, "encode")}
		}
	case models.QuestionFill:
		accepted := splitTrim(answer, "|")
		if len(accepted) == 0 {
			return nil, []models.ImportValidationError{rowErr(colAnswer, "is required", answer, "required")}
		}
		if err := q.SetAccepted(accepted); err != nil {
			return nil, []models.ImportValidationError{rowErr(colAnswer, err.Error(), answer, "encode")}
		}
	case models.QuestionEssay:
		if answer != "" {
			if err := q.SetAccepted([]string{answer}); err != nil {
				return nil, []models.ImportValidationError{rowErr(colAnswer, err.Error(), answer, "encode")}
			}
		}
	}

	for _, e := range s.validator.Question().Validate(&q) {
		errs = append(errs, rowErr(e.Field, e.Message, fmt.Sprint(e.Value), e.Rule))
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return &importDraft{row: rowNum, image: get(colImage), question: q}, nil
}

// parseDefinition converts a yaml/json document; row numbers are 1-based
// positions in the questions list.
func (s *importService) parseDefinition(format models.ImportFormat, def *models.QuizDefinition) *importBundle {
	bundle := &importBundle{format: format, definition: def, totalRows: len(def.Questions)}

	for i, qd := range def.Questions {
		rowNum := i + 1
		field := func(name string) string { return fmt.Sprintf("questions[%d].%s", i, name) }

		qType, ok := NormalizeQuestionType(qd.Type)
		if !ok {
			bundle.errors = append(bundle.errors, models.ImportValidationError{
				Row: rowNum, Column: field("type"), Message: "unknown question type", Value: qd.Type, Code: "invalid_type",
			})
			continue
		}

		q := models.Question{
			Number: len(bundle.drafts) + 1,
			Type:   qType,
			Text:   strings.TrimSpace(qd.Text),
			Points: defaultQuestionPoints,
		}
		if qd.Points != nil {
			q.Points = *qd.Points
		}
		if qd.Explanation != "" {
			explanation := qd.Explanation
			q.Explanation = &explanation
		}
		if len(qd.Options) > 0 {
			options := make([]models.QuestionOption, len(qd.Options))
			for j, od := range qd.Options {
				label := strings.ToUpper(strings.TrimSpace(od.Label))
				if label == "" {
					label = string(rune('A' + j))
				}
				options[j] = models.QuestionOption{Label: label, Text: od.Text, IsCorrect: od.Correct}
			}
			_ = q.SetOptions(options)
		}
		if len(qd.Accepted) > 0 {
			_ = q.SetAccepted(qd.Accepted)
		}

		errs := s.validator.Question().Validate(&q)
		for _, e := range errs {
			bundle.errors = append(bundle.errors, models.ImportValidationError{
				Row: rowNum, Column: field(e.Field), Message: e.Message, Value: fmt.Sprint(e.Value), Code: e.Rule,
			})
		}
		if len(errs) > 0 {
			continue
		}
		bundle.drafts = append(bundle.drafts, importDraft{row: rowNum, image: strings.TrimSpace(qd.Image), question: q})
	}
	return bundle
}

// parseBundle reads a zip holding one question file and the images it
// references. The question file may sit in any folder of the archive.
func (s *importService) parseBundle(data []byte) (*importBundle, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fileError("cannot open zip archive: " + err.Error())
	}

	var sheet *zip.File
	images := make(map[string][]byte)
	var imageErrs []models.ImportValidationError
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		base := path.Base(f.Name)
		if sheet == nil && isBundleEntry(base) {
			sheet = f
			continue
		}
		if _, ok := imageContentTypes[strings.ToLower(path.Ext(base))]; !ok {
			continue
		}
		if f.UncompressedSize64 > maxImageSize {
			imageErrs = append(imageErrs, models.ImportValidationError{
				Column: colImage, Message: "image exceeds 2MB", Value: base, Code: "image_too_large",
			})
			continue
		}
		content, err := readZipEntry(f, maxImageSize)
		if err != nil {
			return nil, err
		}
		images[base] = content
	}
	if sheet == nil {
		return nil, fileError("zip must contain one of: " + strings.Join(bundleEntries, ", "))
	}

	content, err := readZipEntry(sheet, MaxImportSize)
	if err != nil {
		return nil, err
	}
	format, err := detectFormat(sheet.Name)
	if err != nil {
		return nil, err
	}
	bundle, err := s.parse(format, content)
	if err != nil {
		return nil, err
	}
	bundle.format = models.ImportZIP
	bundle.images = images
	bundle.errors = append(bundle.errors, imageErrs...)
	return bundle, nil
}

// checkImages links image names to archive entries. Absolute URLs are kept
// as they are; any other name must be present in the zip.
func (s *importService) checkImages(bundle *importBundle) {
	for _, d := range bundle.drafts {
		if d.image == "" || isRemoteURL(d.image) {
			continue
		}
		if _, ok := bundle.images[path.Base(d.image)]; ok {
			continue
		}
		msg := "image not found in archive"
		if bundle.format != models.ImportZIP {
			msg = "image files require a zip upload"
		}
		bundle.errors = append(bundle.errors, models.ImportValidationError{
			Row: d.row, Column: colImage, Message: msg, Value: d.image, Code: "image_missing",
		})
	}
}

func (s *importService) uploadImages(ctx context.Context, quizID uint, bundle *importBundle) (int, error) {
	urls := make(map[string]string)
	for i := range bundle.drafts {
		d := &bundle.drafts[i]
		if d.image == "" {
			continue
		}
		if isRemoteURL(d.image) {
			url := d.image
			d.question.ImageURL = &url
			continue
		}

		name := path.Base(d.image)
		url, ok := urls[name]
		if !ok {
			content := bundle.images[name]
			contentType := imageContentTypes[strings.ToLower(path.Ext(name))]
			var err error
			url, err = s.storage.Upload(ctx, storage.ObjectKey(quizID, name), bytes.NewReader(content), int64(len(content)), contentType)
			if err != nil {
				return len(urls), fmt.Errorf("failed to upload image %s: %w", name, err)
			}
			urls[name] = url
		}
		d.question.ImageURL = &url
	}
	return len(urls), nil
}

// ===== HELPERS =====

func fileError(message string) ValidationErrors {
	return ValidationErrors{{Field: "file", Message: message, Rule: "format"}}
}

func isBundleEntry(name string) bool {
	name = strings.ToLower(name)
	for _, entry := range bundleEntries {
		if name == entry {
			return true
		}
	}
	return false
}

func readZipEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fileError("cannot read " + f.Name + ": " + err.Error())
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fileError("cannot read " + f.Name + ": " + err.Error())
	}
	if int64(len(content)) > limit {
		return nil, ErrFileTooLarge
	}
	return content, nil
}

// splitAnswerLabels accepts "A", "A,C", "A, C" and the full-width comma
func splitAnswerLabels(answer string) []string {
	answer = strings.NewReplacer("，", ",", "、", ",").Replace(answer)
	labels := splitTrim(strings.ToUpper(answer), ",")
	return labels
}

func splitTrim(v, sep string) []string {
	var out []string
	for _, part := range strings.Split(v, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func blankRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func isRemoteURL(v string) bool {
	return strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://")
}
