package storage

import (
	"time"

	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
	"gorm.io/gorm"
)

type sqliteRepository struct {
	db *gorm.DB
}

func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) CreateEncounter(e *game.Encounter) error {
	return r.db.Create(e).Error
}

func (r *sqliteRepository) GetEncounterByID(id uint) (*game.Encounter, error) {
	var e game.Encounter
	if err := r.db.Preload("Combatants").First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *sqliteRepository) FindEncounterByJoinCode(code string) (*game.Encounter, error) {
	var e game.Encounter
	err := r.db.Preload("Combatants").Where("join_code = ?", code).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *sqliteRepository) GetOpenEncounters() ([]game.Encounter, error) {
	var encounters []game.Encounter
	oneHourAgo := time.Now().Add(-1 * time.Hour)
	if err := r.db.Preload("Combatants").
		Where("status = ? AND created_at > ?", game.StatusSetup, oneHourAgo).
		Order("created_at desc").
		Find(&encounters).Error; err != nil {
		return nil, err
	}
	return encounters, nil
}

func (r *sqliteRepository) UpdateEncounter(e *game.Encounter) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(e).Error
}

func (r *sqliteRepository) DeleteEncounter(id uint) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := tx.Where("encounter_id = ?", id).Delete(&game.Combatant{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&game.Encounter{}, id).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func (r *sqliteRepository) UpsertUser(email, name string) error {
	var u game.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			u = game.User{Email: email, PlayerName: name}
		} else {
			return err
		}
	}
	u.PlayerName = name
	return r.db.Save(&u).Error
}

func (r *sqliteRepository) GetStatsByEmail(email string) (*game.User, error) {
	var u game.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &game.User{Email: email}, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *sqliteRepository) UpdateStatsOnEncounterEnd(e *game.Encounter) error {
	if e.OwnerEmail == "" {
		return nil
	}
	var u game.User
	if err := r.db.Where("email = ?", e.OwnerEmail).First(&u).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		u = game.User{Email: e.OwnerEmail}
	}
	u.Encounters++
	switch e.Outcome {
	case game.OutcomeVictory:
		u.Victories++
	case game.OutcomeDefeat:
		u.Defeats++
	}
	return r.db.Save(&u).Error
}

// GetTopPlayers returns the top N players ordered by victories, then by
// encounters played.
func (r *sqliteRepository) GetTopPlayers(limit int) ([]game.User, error) {
	if limit <= 0 {
		limit = 10
	}
	var users []game.User
	if err := r.db.Model(&game.User{}).
		Order("victories DESC").
		Order("encounters DESC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *sqliteRepository) FindTimedOutEncounters(now time.Time) ([]game.Encounter, error) {
	var encounters []game.Encounter
	if err := r.db.Preload("Combatants").
		Where("status = ? AND phase = ? AND action_deadline <= ?", game.StatusInProgress, game.PhasePlanning, now).
		Find(&encounters).Error; err != nil {
		return nil, err
	}
	return encounters, nil
}
