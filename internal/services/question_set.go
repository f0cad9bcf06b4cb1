package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/PandaDev0069/TUIZ-sub003/internal/models"
)

type QuestionSetService struct {
	db *gorm.DB
}

func NewQuestionSetService(db *gorm.DB) *QuestionSetService {
	return &QuestionSetService{db: db}
}

type QuestionInput struct {
	Text        string   `json:"text" binding:"required"`
	TimeLimit   int      `json:"time_limit"`
	Points      int      `json:"points"`
	Explanation string   `json:"explanation"`
	Options     []string `json:"options" binding:"required,min=2,max=6"`
	Correct     int      `json:"correct"`
}

type QuestionSetInput struct {
	Title       string          `json:"title" binding:"required,min=1,max=255"`
	Description string          `json:"description"`
	Questions   []QuestionInput `json:"questions"`
}

func (s *QuestionSetService) ListByHost(hostID uint) ([]models.QuestionSet, error) {
	var sets []models.QuestionSet
	err := s.db.Where("host_id = ?", hostID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		Order("created_at DESC").
		Find(&sets).Error
	return sets, err
}

func (s *QuestionSetService) GetByID(setID, hostID uint) (*models.QuestionSet, error) {
	var set models.QuestionSet
	err := s.db.Where("id = ? AND host_id = ?", setID, hostID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		First(&set).Error
	if err != nil {
		return nil, errors.New("question set not found")
	}
	return &set, nil
}

func (s *QuestionSetService) Create(hostID uint, input QuestionSetInput) (*models.QuestionSet, error) {
	set := models.QuestionSet{
		HostID:      hostID,
		Title:       input.Title,
		Description: input.Description,
	}

	tx := s.db.Begin()
	if err := tx.Create(&set).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := s.insertQuestions(tx, set.ID, input.Questions); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetByID(set.ID, hostID)
}

func (s *QuestionSetService) Update(setID, hostID uint, input QuestionSetInput) (*models.QuestionSet, error) {
	var set models.QuestionSet
	if err := s.db.Where("id = ? AND host_id = ?", setID, hostID).First(&set).Error; err != nil {
		return nil, errors.New("question set not found")
	}

	set.Title = input.Title
	set.Description = input.Description

	tx := s.db.Begin()
	if err := tx.Save(&set).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	// Replace the full question list; partial edits go through a
	// fresh Update with the complete set.
	tx.Where("question_id IN (SELECT id FROM questions WHERE question_set_id = ?)", setID).Delete(&models.Option{})
	tx.Where("question_set_id = ?", setID).Delete(&models.Question{})
	if err := s.insertQuestions(tx, setID, input.Questions); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetByID(setID, hostID)
}

func (s *QuestionSetService) Delete(setID, hostID uint) error {
	result := s.db.Where("id = ? AND host_id = ?", setID, hostID).Delete(&models.QuestionSet{})
	if result.RowsAffected == 0 {
		return errors.New("question set not found")
	}
	return result.Error
}

func (s *QuestionSetService) insertQuestions(tx *gorm.DB, setID uint, inputs []QuestionInput) error {
	for i, in := range inputs {
		if in.Correct < 0 || in.Correct >= len(in.Options) {
			return errors.New("correct option index out of range")
		}
		timeLimit := in.TimeLimit
		if timeLimit <= 0 {
			timeLimit = 30
		}
		points := in.Points
		if points <= 0 {
			points = 100
		}

		q := models.Question{
			QuestionSetID: setID,
			Text:          in.Text,
			OrderNum:      i,
			TimeLimit:     timeLimit,
			Points:        points,
			Explanation:   in.Explanation,
		}
		if err := tx.Create(&q).Error; err != nil {
			return err
		}
		for j, text := range in.Options {
			opt := models.Option{
				QuestionID: q.ID,
				Text:       text,
				OrderNum:   j,
				IsCorrect:  j == in.Correct,
			}
			if err := tx.Create(&opt).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
