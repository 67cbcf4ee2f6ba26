package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shift-clock/backend/internal/lockout"
	"shift-clock/backend/internal/model"
	"shift-clock/backend/internal/notify"
	"shift-clock/backend/internal/repository"
	"shift-clock/backend/internal/timecalc"
	"shift-clock/backend/pkg/clock"
	pkgerrors "shift-clock/backend/pkg/errors"
)

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	mu        sync.Mutex
	employees map[string]*model.Employee
	seq       int
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{employees: make(map[string]*model.Employee)}
}

func (m *mockEmployeeRepo) Create(_ context.Context, e *model.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.EmployeeID == "" {
		m.seq++
		e.EmployeeID = fmt.Sprintf("emp-%03d", m.seq)
	}
	cp := *e
	m.employees[e.EmployeeID] = &cp
	return nil
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.employees[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) List(_ context.Context, includeInactive bool) ([]model.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Employee
	for _, e := range m.employees {
		if includeInactive || e.IsActive {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockEmployeeRepo) ListActiveByRole(_ context.Context, role string) ([]model.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Employee
	for _, e := range m.employees {
		if e.IsActive && (role == "" || e.Role == role) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (m *mockEmployeeRepo) Update(_ context.Context, e *model.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.employees[e.EmployeeID] = &cp
	return nil
}

func (m *mockEmployeeRepo) UpdatePINHash(_ context.Context, id, pinHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.PINHash = pinHash
	return nil
}

func (m *mockEmployeeRepo) lookup(id string) *model.Employee {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.employees[id]; ok {
		cp := *e
		return &cp
	}
	return nil
}

// ── Mock LocationRepository ──

type mockLocationRepo struct {
	mu        sync.Mutex
	locations map[string]*model.Location
	seq       int
}

func newMockLocationRepo() *mockLocationRepo {
	return &mockLocationRepo{locations: make(map[string]*model.Location)}
}

func (m *mockLocationRepo) Create(_ context.Context, loc *model.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if loc.LocationID == "" {
		m.seq++
		loc.LocationID = fmt.Sprintf("loc-%03d", m.seq)
	}
	cp := *loc
	m.locations[loc.LocationID] = &cp
	return nil
}

func (m *mockLocationRepo) GetByID(_ context.Context, id string) (*model.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.locations[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLocationRepo) List(_ context.Context, includeInactive bool) ([]model.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Location
	for _, l := range m.locations {
		if includeInactive || l.IsActive {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockLocationRepo) Update(_ context.Context, loc *model.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *loc
	m.locations[loc.LocationID] = &cp
	return nil
}

func (m *mockLocationRepo) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.locations)), nil
}

func (m *mockLocationRepo) lookup(id string) *model.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.locations[id]; ok {
		cp := *l
		return &cp
	}
	return nil
}

// ── Mock DeviceRepository ──

type mockDeviceRepo struct {
	mu        sync.Mutex
	devices   map[string]*model.Device
	locations *mockLocationRepo
	seq       int
}

func newMockDeviceRepo(locations *mockLocationRepo) *mockDeviceRepo {
	return &mockDeviceRepo{devices: make(map[string]*model.Device), locations: locations}
}

func (m *mockDeviceRepo) Create(_ context.Context, d *model.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.devices {
		if existing.DeviceUUID == d.DeviceUUID {
			return gorm.ErrDuplicatedKey
		}
	}
	if d.DeviceID == "" {
		m.seq++
		d.DeviceID = fmt.Sprintf("dev-%03d", m.seq)
	}
	cp := *d
	cp.Location = nil
	m.devices[d.DeviceID] = &cp
	return nil
}

func (m *mockDeviceRepo) GetByID(_ context.Context, id string) (*model.Device, error) {
	m.mu.Lock()
	d, ok := m.devices[id]
	m.mu.Unlock()
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withLocation(d), nil
}

func (m *mockDeviceRepo) GetByUUID(_ context.Context, deviceUUID string) (*model.Device, error) {
	m.mu.Lock()
	var found *model.Device
	for _, d := range m.devices {
		if d.DeviceUUID == deviceUUID {
			found = d
			break
		}
	}
	m.mu.Unlock()
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withLocation(found), nil
}

func (m *mockDeviceRepo) List(_ context.Context) ([]model.Device, error) {
	m.mu.Lock()
	all := make([]*model.Device, 0, len(m.devices))
	for _, d := range m.devices {
		all = append(all, d)
	}
	m.mu.Unlock()

	out := make([]model.Device, 0, len(all))
	for _, d := range all {
		out = append(out, *m.withLocation(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out, nil
}

func (m *mockDeviceRepo) Update(_ context.Context, d *model.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	cp.Location = nil
	m.devices[d.DeviceID] = &cp
	return nil
}

func (m *mockDeviceRepo) withLocation(d *model.Device) *model.Device {
	cp := *d
	cp.Location = m.locations.lookup(d.LocationID)
	return &cp
}

// ── Mock ShiftRepository ──
//
// Create / Update 模拟部分唯一索引：同一员工最多一条进行中班次，违反时返回 gorm.ErrDuplicatedKey。

type mockShiftRepo struct {
	mu        sync.Mutex
	shifts    map[string]*model.Shift
	employees *mockEmployeeRepo
	locations *mockLocationRepo
	seq       int
	createErr error
}

func newMockShiftRepo(employees *mockEmployeeRepo, locations *mockLocationRepo) *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift), employees: employees, locations: locations}
}

func (m *mockShiftRepo) Create(_ context.Context, s *model.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if s.ClockOutTime == nil && m.openLocked(s.EmployeeID, "") != nil {
		return gorm.ErrDuplicatedKey
	}
	if s.ShiftID == "" {
		m.seq++
		s.ShiftID = fmt.Sprintf("shift-%03d", m.seq)
	}
	if s.Version == 0 {
		s.Version = 1
	}
	m.shifts[s.ShiftID] = m.strip(s)
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	m.mu.Lock()
	s, ok := m.shifts[id]
	m.mu.Unlock()
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockShiftRepo) GetByIDWithDetails(_ context.Context, id string) (*model.Shift, error) {
	m.mu.Lock()
	s, ok := m.shifts[id]
	m.mu.Unlock()
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withDetails(s), nil
}

func (m *mockShiftRepo) FindOpenByEmployee(_ context.Context, employeeID string) (*model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.openLocked(employeeID, ""); s != nil {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) ListOpenByLocation(_ context.Context, locationID string) ([]model.Shift, error) {
	out := m.filter(func(s *model.Shift) bool {
		return s.LocationID == locationID && s.ClockOutTime == nil
	})
	sortShiftsDesc(out)
	return out, nil
}

func (m *mockShiftRepo) ListOverlapping(_ context.Context, from, to time.Time) ([]model.Shift, error) {
	out := m.filter(func(s *model.Shift) bool {
		return timecalc.Overlaps(s.ClockInTime, s.ClockOutTime, from, to)
	})
	sortShiftsDesc(out)
	return out, nil
}

func (m *mockShiftRepo) ListByClockInRange(_ context.Context, from, to time.Time, offset, limit int) ([]model.Shift, int64, error) {
	out := m.filter(func(s *model.Shift) bool {
		return !s.ClockInTime.Before(from) && s.ClockInTime.Before(to)
	})
	sortShiftsDesc(out)
	total := int64(len(out))
	if limit > 0 {
		if offset >= len(out) {
			return []model.Shift{}, total, nil
		}
		end := offset + limit
		if end > len(out) {
			end = len(out)
		}
		out = out[offset:end]
	}
	return out, total, nil
}

func (m *mockShiftRepo) ListByEmployeeClockInRange(_ context.Context, employeeID string, from, to time.Time) ([]model.Shift, error) {
	out := m.filter(func(s *model.Shift) bool {
		return s.EmployeeID == employeeID && !s.ClockInTime.Before(from) && s.ClockInTime.Before(to)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ClockInTime.Before(out[j].ClockInTime) })
	return out, nil
}

func (m *mockShiftRepo) Close(_ context.Context, s *model.Shift, clockOut time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.shifts[s.ShiftID]
	if !ok || stored.Version != s.Version || stored.ClockOutTime != nil {
		return pkgerrors.ErrOptimisticLock
	}
	out := clockOut
	stored.ClockOutTime = &out
	stored.Version++
	s.ClockOutTime = &out
	s.Version = stored.Version
	return nil
}

func (m *mockShiftRepo) Update(_ context.Context, s *model.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.shifts[s.ShiftID]
	if !ok || stored.Version != s.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if s.ClockOutTime == nil && m.openLocked(s.EmployeeID, s.ShiftID) != nil {
		return gorm.ErrDuplicatedKey
	}
	s.Version++
	m.shifts[s.ShiftID] = m.strip(s)
	return nil
}

// openLocked 调用方需持有 m.mu
func (m *mockShiftRepo) openLocked(employeeID, exceptID string) *model.Shift {
	for _, s := range m.shifts {
		if s.EmployeeID == employeeID && s.ClockOutTime == nil && s.ShiftID != exceptID {
			return s
		}
	}
	return nil
}

func (m *mockShiftRepo) filter(keep func(*model.Shift) bool) []model.Shift {
	m.mu.Lock()
	matched := make([]*model.Shift, 0)
	for _, s := range m.shifts {
		if keep(s) {
			matched = append(matched, s)
		}
	}
	m.mu.Unlock()

	out := make([]model.Shift, 0, len(matched))
	for _, s := range matched {
		out = append(out, *m.withDetails(s))
	}
	return out
}

func (m *mockShiftRepo) withDetails(s *model.Shift) *model.Shift {
	cp := *s
	cp.Employee = m.employees.lookup(s.EmployeeID)
	cp.Location = m.locations.lookup(s.LocationID)
	return &cp
}

func (m *mockShiftRepo) strip(s *model.Shift) *model.Shift {
	cp := *s
	cp.Employee, cp.Location, cp.Device = nil, nil, nil
	return &cp
}

func sortShiftsDesc(shifts []model.Shift) {
	sort.Slice(shifts, func(i, j int) bool {
		if !shifts[i].ClockInTime.Equal(shifts[j].ClockInTime) {
			return shifts[i].ClockInTime.After(shifts[j].ClockInTime)
		}
		return shifts[i].ShiftID < shifts[j].ShiftID
	})
}

// ── Mock ShiftAuditRepository ──

type mockShiftAuditRepo struct {
	mu     sync.Mutex
	audits []model.ShiftAudit
	seq    int
}

func newMockShiftAuditRepo() *mockShiftAuditRepo {
	return &mockShiftAuditRepo{}
}

func (m *mockShiftAuditRepo) BatchCreate(_ context.Context, audits []model.ShiftAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range audits {
		if audits[i].AuditID == "" {
			m.seq++
			audits[i].AuditID = fmt.Sprintf("audit-%03d", m.seq)
		}
		m.audits = append(m.audits, audits[i])
	}
	return nil
}

func (m *mockShiftAuditRepo) ListByShift(_ context.Context, shiftID string) ([]model.ShiftAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ShiftAudit
	for _, a := range m.audits {
		if a.ShiftID == shiftID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockShiftAuditRepo) ListLatest(_ context.Context, limit int) ([]model.ShiftAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ShiftAudit, len(m.audits))
	copy(out, m.audits)
	sort.SliceStable(out, func(i, j int) bool { return out[i].EditedAt.After(out[j].EditedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ── 事件记录 ──

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) snapshot() []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notify.Event, len(p.events))
	copy(out, p.events)
	return out
}

// ── 测试环境 ──

// 2026-03-02 是周一
var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	repo      *repository.Repository
	employees *mockEmployeeRepo
	locations *mockLocationRepo
	devices   *mockDeviceRepo
	shifts    *mockShiftRepo
	audits    *mockShiftAuditRepo
	clock     *clock.Manual
	publisher *recordingPublisher
	logger    *zap.Logger
}

func newTestEnv() *testEnv {
	employees := newMockEmployeeRepo()
	locations := newMockLocationRepo()
	devices := newMockDeviceRepo(locations)
	shifts := newMockShiftRepo(employees, locations)
	audits := newMockShiftAuditRepo()

	return &testEnv{
		repo: &repository.Repository{
			Employee:   employees,
			Location:   locations,
			Device:     devices,
			Shift:      shifts,
			ShiftAudit: audits,
		},
		employees: employees,
		locations: locations,
		devices:   devices,
		shifts:    shifts,
		audits:    audits,
		clock:     clock.NewManual(testStart),
		publisher: &recordingPublisher{},
		logger:    zap.NewNop(),
	}
}

func (e *testEnv) creds() CredentialVerifier {
	return NewCredentialVerifier(e.repo, 4, bcrypt.MinCost, e.logger)
}

func (e *testEnv) shiftService() ShiftService {
	return NewShiftService(e.repo, e.publisher, e.clock, e.logger)
}

func (e *testEnv) clockService(limiter lockout.Limiter) ClockService {
	return NewClockService(
		e.repo,
		NewDeviceService(e.repo, e.clock, e.logger),
		e.creds(),
		limiter,
		e.shiftService(),
		e.clock,
		e.logger,
	)
}

func (e *testEnv) addEmployee(id, name, pin, role string) *model.Employee {
	hash, _ := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	emp := &model.Employee{EmployeeID: id, Name: name, PINHash: string(hash), Role: role, IsActive: true}
	_ = e.employees.Create(context.Background(), emp)
	return emp
}

func (e *testEnv) addLocation(id, name string) *model.Location {
	loc := &model.Location{LocationID: id, Name: name, Type: model.LocationTypeLaundry, IsActive: true}
	_ = e.locations.Create(context.Background(), loc)
	return loc
}

func (e *testEnv) addDevice(id, deviceUUID, locationID string) *model.Device {
	d := &model.Device{DeviceID: id, DeviceUUID: deviceUUID, LocationID: locationID, IsActive: true, RegisteredAt: testStart}
	_ = e.devices.Create(context.Background(), d)
	return d
}

// addShift 直接写入一条班次，out 为零值表示进行中
func (e *testEnv) addShift(id, employeeID, locationID, deviceID string, in, out time.Time) *model.Shift {
	s := &model.Shift{ShiftID: id, EmployeeID: employeeID, LocationID: locationID, DeviceID: deviceID, ClockInTime: in}
	if !out.IsZero() {
		s.ClockOutTime = &out
	}
	if err := e.shifts.Create(context.Background(), s); err != nil {
		panic(err)
	}
	return s
}
