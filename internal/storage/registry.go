package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/internal/model"
)

// ListEmployees returns all employees ordered by name
func (s *Storage) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	employees := []model.Employee{}
	err := s.db.SelectContext(ctx, &employees,
		`SELECT id, name, email, phone, created_at FROM employees ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// CreateEmployee inserts e and sets its ID. Duplicate names or emails
// yield a domain.ConflictError.
func (s *Storage) CreateEmployee(ctx context.Context, e *model.Employee) error {
	e.CreatedAt = s.now()

	id, err := insertReturningID(ctx, s.db,
		s.db.Rebind(`INSERT INTO employees (name, email, phone, created_at) VALUES (?, ?, ?, ?)`),
		e.Name, e.Email, e.Phone, e.CreatedAt,
	)
	if err != nil {
		if constraintOf(err) == constraintUnique {
			return &domain.ConflictError{Entity: "employee", Reason: "name or email already exists"}
		}
		return persistErr("create employee", err)
	}
	e.ID = id

	s.logger.Info("Employee created", slog.Int64("employee_id", id), slog.String("name", e.Name))
	return nil
}

// DeleteEmployee removes the employee and its team memberships. An
// employee still assigned to jobs cannot be deleted.
func (s *Storage) DeleteEmployee(ctx context.Context, id int64) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM team_members WHERE employee_id = ?`), id); err != nil {
			return err
		}
		return deleteByID(ctx, tx, "employees", "employee", id)
	})
	if constraintOf(err) == constraintForeignKey {
		return &domain.ConflictError{Entity: "employee", Reason: "still assigned to jobs"}
	}
	return persistErr("delete employee", err)
}

// ListTeams returns all teams ordered by name
func (s *Storage) ListTeams(ctx context.Context) ([]model.Team, error) {
	teams := []model.Team{}
	if err := s.db.SelectContext(ctx, &teams, `SELECT id, name, created_at FROM teams ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// CreateTeam inserts t and sets its ID
func (s *Storage) CreateTeam(ctx context.Context, t *model.Team) error {
	t.CreatedAt = s.now()

	id, err := insertReturningID(ctx, s.db,
		s.db.Rebind(`INSERT INTO teams (name, created_at) VALUES (?, ?)`),
		t.Name, t.CreatedAt,
	)
	if err != nil {
		if constraintOf(err) == constraintUnique {
			return &domain.ConflictError{Entity: "team", Reason: "name already exists"}
		}
		return persistErr("create team", err)
	}
	t.ID = id

	s.logger.Info("Team created", slog.Int64("team_id", id), slog.String("name", t.Name))
	return nil
}

// DeleteTeam removes the team together with its memberships
func (s *Storage) DeleteTeam(ctx context.Context, id int64) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM team_members WHERE team_id = ?`), id); err != nil {
			return err
		}
		return deleteByID(ctx, tx, "teams", "team", id)
	})
	return persistErr("delete team", err)
}

// ListTeamMembers returns the employees belonging to a team
func (s *Storage) ListTeamMembers(ctx context.Context, teamID int64) ([]model.Employee, error) {
	ok, err := exists(ctx, s.db, s.db.Rebind, "teams", teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up team: %w", err)
	}
	if !ok {
		return nil, &domain.NotFoundError{Entity: "team", ID: teamID}
	}

	members := []model.Employee{}
	query := s.db.Rebind(`
		SELECT e.id, e.name, e.email, e.phone, e.created_at
		FROM team_members m
		JOIN employees e ON e.id = m.employee_id
		WHERE m.team_id = ?
		ORDER BY e.name, e.id`)
	if err := s.db.SelectContext(ctx, &members, query, teamID); err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return members, nil
}

// AddTeamMember links an employee to a team
func (s *Storage) AddTeamMember(ctx context.Context, teamID, employeeID int64) (*model.Membership, error) {
	m := &model.Membership{TeamID: teamID, EmployeeID: employeeID}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, ref := range []struct {
			table, entity string
			id            int64
		}{
			{"teams", "team", teamID},
			{"employees", "employee", employeeID},
		} {
			ok, err := exists(ctx, tx, tx.Rebind, ref.table, ref.id)
			if err != nil {
				return err
			}
			if !ok {
				return &domain.NotFoundError{Entity: ref.entity, ID: ref.id}
			}
		}

		id, err := insertReturningID(ctx, tx,
			tx.Rebind(`INSERT INTO team_members (team_id, employee_id) VALUES (?, ?)`),
			teamID, employeeID,
		)
		if err != nil {
			return err
		}
		m.ID = id
		return nil
	})
	if constraintOf(err) == constraintUnique {
		return nil, &domain.ConflictError{Entity: "team member", Reason: "employee is already in the team"}
	}
	if err != nil {
		return nil, persistErr("add team member", err)
	}
	return m, nil
}

// RemoveTeamMember unlinks an employee from a team
func (s *Storage) RemoveTeamMember(ctx context.Context, teamID, employeeID int64) error {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM team_members WHERE team_id = ? AND employee_id = ?`),
		teamID, employeeID,
	)
	if err != nil {
		return persistErr("remove team member", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.NotFoundError{Entity: "team member", ID: employeeID}
	}
	return nil
}

// ListDescriptions returns all work descriptions ordered by text
func (s *Storage) ListDescriptions(ctx context.Context) ([]model.Description, error) {
	descriptions := []model.Description{}
	if err := s.db.SelectContext(ctx, &descriptions, `SELECT id, text, category FROM descriptions ORDER BY text, id`); err != nil {
		return nil, fmt.Errorf("failed to list descriptions: %w", err)
	}
	return descriptions, nil
}

// CreateDescription inserts d and sets its ID
func (s *Storage) CreateDescription(ctx context.Context, d *model.Description) error {
	id, err := insertReturningID(ctx, s.db,
		s.db.Rebind(`INSERT INTO descriptions (text, category) VALUES (?, ?)`),
		d.Text, d.Category,
	)
	if err != nil {
		if constraintOf(err) == constraintUnique {
			return &domain.ConflictError{Entity: "description", Reason: "text already exists"}
		}
		return persistErr("create description", err)
	}
	d.ID = id
	return nil
}

// DeleteDescription removes a description no job refers to
func (s *Storage) DeleteDescription(ctx context.Context, id int64) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		return deleteByID(ctx, tx, "descriptions", "description", id)
	})
	if constraintOf(err) == constraintForeignKey {
		return &domain.ConflictError{Entity: "description", Reason: "still used by jobs"}
	}
	return persistErr("delete description", err)
}

func deleteByID(ctx context.Context, tx *sqlx.Tx, table, entity string, id int64) error {
	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM "+table+" WHERE id = ?"), id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
