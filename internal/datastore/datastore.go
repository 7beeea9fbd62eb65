package datastore

import (
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/toksikk/soundbig/internal/cfg"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	// ErrCombinationExists is returned when the guild already has a combination with that name.
	ErrCombinationExists = errors.New("combination already exists")
	// ErrCombinationNotFound is returned when no combination matches server and name.
	ErrCombinationNotFound = errors.New("combination not found")
	// ErrEmptyCombination is returned when saving a combination without sounds.
	ErrEmptyCombination = errors.New("combination has no sounds")
	// ErrInvalidName is returned for blank or too long combination names.
	ErrInvalidName = errors.New("combination name must be 1 to 80 characters")
)

// MaxNameLength is the longest combination name in characters.
const MaxNameLength = 80

// Combination is a named, ordered list of soundboard sounds of one guild.
type Combination struct {
	ID        uint               `gorm:"primaryKey"`
	ServerID  string             `gorm:"not null;uniqueIndex:idx_combination_server_name"`
	Name      string             `gorm:"not null;uniqueIndex:idx_combination_server_name"`
	Sounds    []CombinationSound `gorm:"foreignKey:CombinationID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the pluralized default.
func (Combination) TableName() string { return "combination" }

// CombinationSound is one entry of a combination. Position keeps insertion order.
type CombinationSound struct {
	ID            uint   `gorm:"primaryKey"`
	CombinationID uint   `gorm:"not null;index"`
	SoundID       string `gorm:"not null"`
	Position      int    `gorm:"not null"`
}

// TableName overrides the pluralized default.
func (CombinationSound) TableName() string { return "combination_sound" }

// SoundIDs returns the sound ids in playback order.
func (c *Combination) SoundIDs() []string {
	ids := make([]string, 0, len(c.Sounds))
	for _, s := range c.Sounds {
		ids = append(ids, s.SoundID)
	}
	return ids
}

// CombinationDetail is a combination expanded for playback.
type CombinationDetail struct {
	Name     string
	SoundIDs []string
}

// Store represents the data store.
type Store struct {
	db *gorm.DB
	mu sync.Mutex
}

// InitDB opens the database for the configured driver and performs migrations.
func InitDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case cfg.DriverSQLite:
		dialector = sqlite.Open(dsn)
	case cfg.DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the combination tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Combination{}, &CombinationSound{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// NewStore creates a new Store instance.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Ping checks the database connection.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func exists(db *gorm.DB, serverID, name string) (bool, error) {
	var count int64
	result := db.Model(&Combination{}).Where("server_id = ? AND name = ?", serverID, name).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("could not look up combination %q: %w", name, result.Error)
	}
	return count > 0, nil
}

func orderedSounds(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

// Exists reports whether the guild already has a combination with that name.
func (s *Store) Exists(serverID, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return exists(s.db, serverID, name)
}

// Save stores a combination and its sounds in one transaction.
// Nothing is written when the name is already taken.
func (s *Store) Save(serverID, name string, soundIDs []string) (*Combination, error) {
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return nil, ErrInvalidName
	}
	if len(soundIDs) == 0 {
		return nil, ErrEmptyCombination
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	combination := &Combination{ServerID: serverID, Name: name}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		taken, err := exists(tx, serverID, name)
		if err != nil {
			return err
		}
		if taken {
			return ErrCombinationExists
		}

		if err := tx.Create(combination).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCombinationExists
			}
			return fmt.Errorf("could not insert combination: %w", err)
		}

		sounds := make([]CombinationSound, len(soundIDs))
		for i, id := range soundIDs {
			sounds[i] = CombinationSound{CombinationID: combination.ID, SoundID: id, Position: i}
		}
		if err := tx.Create(&sounds).Error; err != nil {
			return fmt.Errorf("could not insert combination sounds: %w", err)
		}
		combination.Sounds = sounds
		return nil
	})
	if err != nil {
		return nil, err
	}

	return combination, nil
}

// List returns all combinations of a guild ordered by name.
func (s *Store) List(serverID string) ([]Combination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var combinations []Combination
	result := s.db.Preload("Sounds", orderedSounds).
		Where("server_id = ?", serverID).
		Order("name ASC").
		Find(&combinations)
	if result.Error != nil {
		return nil, fmt.Errorf("could not list combinations: %w", result.Error)
	}
	return combinations, nil
}

// Get returns a combination of the guild by id, with its sounds in order.
func (s *Store) Get(serverID string, id uint) (*Combination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var combination Combination
	result := s.db.Preload("Sounds", orderedSounds).
		Where("server_id = ? AND id = ?", serverID, id).
		First(&combination)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrCombinationNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("could not look up combination %d: %w", id, result.Error)
	}
	return &combination, nil
}

// Delete removes a combination together with its sound rows.
func (s *Store) Delete(serverID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		var combination Combination
		result := tx.Where("server_id = ? AND name = ?", serverID, name).First(&combination)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrCombinationNotFound
		}
		if result.Error != nil {
			return fmt.Errorf("could not look up combination %q: %w", name, result.Error)
		}

		if err := tx.Where("combination_id = ?", combination.ID).Delete(&CombinationSound{}).Error; err != nil {
			return fmt.Errorf("could not delete combination sounds: %w", err)
		}
		if err := tx.Delete(&combination).Error; err != nil {
			return fmt.Errorf("could not delete combination: %w", err)
		}
		return nil
	})
}

// FetchDetails expands combination names into ordered sound id lists.
// Unknown names are skipped, the result follows the order of names.
func (s *Store) FetchDetails(serverID string, names []string) ([]CombinationDetail, error) {
	if len(names) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var combinations []Combination
	result := s.db.Preload("Sounds", orderedSounds).
		Where("server_id = ? AND name IN ?", serverID, names).
		Find(&combinations)
	if result.Error != nil {
		return nil, fmt.Errorf("could not fetch combination details: %w", result.Error)
	}

	byName := make(map[string]*Combination, len(combinations))
	for i := range combinations {
		byName[combinations[i].Name] = &combinations[i]
	}

	details := make([]CombinationDetail, 0, len(combinations))
	for _, name := range names {
		c, ok := byName[name]
		if !ok {
			continue
		}
		details = append(details, CombinationDetail{Name: c.Name, SoundIDs: c.SoundIDs()})
		delete(byName, name)
	}
	return details, nil
}
