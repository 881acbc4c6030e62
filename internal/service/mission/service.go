package mission

import (
	"context"
	"fmt"
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/wallet"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/trm"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// MissionService manages hotspots: operator-created locations a driver
// pays an entry fee to be prioritized at. The fee hits a driver at most
// once per mission no matter how often the join is retried.
type MissionService struct {
	missions MissionRepo
	drivers  DriverRepo
	ledger   Ledger
	broker   Broker
	trm      trm.TxManager
	log      logger.Logger
}

func NewMissionService(missions MissionRepo, drivers DriverRepo, ledger Ledger, broker Broker, trm trm.TxManager, log logger.Logger) *MissionService {
	return &MissionService{
		missions: missions,
		drivers:  drivers,
		ledger:   ledger,
		broker:   broker,
		trm:      trm,
		log:      log,
	}
}

type CreateMissionCommand struct {
	Location    string
	Description string
	EntryFee    types.Money
}

// Create opens a new active mission. Operator only.
func (s *MissionService) Create(ctx context.Context, cmd CreateMissionCommand) (*models.HubMission, error) {
	ctx = wrap.WithAction(ctx, "create_mission")

	if cmd.EntryFee < 0 {
		return nil, wrap.Error(ctx, fmt.Errorf("entry fee may not be negative"))
	}

	id, err := uuid.New()
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("could not generate mission id: %w", err))
	}

	m := &models.HubMission{
		ID:          id,
		Location:    cmd.Location,
		Description: cmd.Description,
		EntryFee:    cmd.EntryFee,
		Active:      true,
		CreatedAt:   time.Now(),
	}
	if err := s.missions.Create(ctx, m); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.publish(ctx, m, nil)
	return m, nil
}

// Join reserves a mission slot for a driver and debits the entry fee.
// A repeat join is rejected with AlreadyJoined and moves no money.
func (s *MissionService) Join(ctx context.Context, missionID, driverID uuid.UUID) error {
	ctx = wrap.WithAction(ctx, "join_mission")

	var joined *models.HubMission

	err := s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		m, err := s.missions.GetForUpdate(ctx, missionID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if !m.Active {
			return wrap.Error(ctx, types.ErrInvalidState)
		}
		if m.Joined(driverID) {
			return wrap.Error(ctx, types.ErrAlreadyJoined)
		}

		if _, err := s.drivers.GetDriverByID(ctx, driverID); err != nil {
			return wrap.Error(ctx, err)
		}

		// The entry fee accrues to hub revenue like trip commission.
		if m.EntryFee > 0 {
			acc := wallet.Account{ID: driverID, Type: types.DriverAccount}
			ref := m.ID
			if err := s.ledger.Debit(ctx, acc, m.EntryFee, types.TxCommission, &ref); err != nil {
				return wrap.Error(ctx, err)
			}
		}

		if err := s.missions.AddDriver(ctx, m.ID, driverID); err != nil {
			return wrap.Error(ctx, err)
		}

		m.DriversJoined = append(m.DriversJoined, driverID)
		joined = m
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, joined, &driverID)
	return nil
}

func (s *MissionService) Get(ctx context.Context, id uuid.UUID) (*models.HubMission, error) {
	return s.missions.Get(ctx, id)
}

func (s *MissionService) List(ctx context.Context, activeOnly bool) ([]models.HubMission, error) {
	return s.missions.List(ctx, activeOnly)
}

// Close deactivates a mission; joined drivers keep their slots, nobody
// new can buy in.
func (s *MissionService) Close(ctx context.Context, id uuid.UUID) error {
	ctx = wrap.WithAction(ctx, "close_mission")
	return s.missions.SetActive(ctx, id, false)
}

func (s *MissionService) publish(ctx context.Context, m *models.HubMission, driverID *uuid.UUID) {
	if s.broker == nil || m == nil {
		return
	}
	msg := models.MissionEventMessage{
		MissionID: m.ID,
		DriverID:  driverID,
		EntryFee:  m.EntryFee,
		Timestamp: time.Now(),
	}
	if err := s.broker.PublishMissionEvent(ctx, msg); err != nil {
		s.log.Warn(ctx, "failed to publish mission event", "mission_id", m.ID, "err", err.Error())
	}
}
