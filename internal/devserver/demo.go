package devserver

import (
	"time"

	"github.com/nhle/lms-notify/internal/model"
)

func link(s string) *string { return &s }

// SeedDemo fills the inbox with a mix of types, priorities and days for
// every role, relative to now.
func SeedDemo(b *Inbox, now time.Time) {
	read := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}

	b.Add(model.RoleUser, model.Notification{
		Title:     "Sesi absensi dibuka",
		Message:   "Kelas Basis Data (IF-3A) membuka sesi absensi hingga 10:30. Pindai kode QR di kelas.",
		Type:      model.TypeAttendance,
		Priority:  model.PriorityUrgent,
		ActionURL: link("/user/attendance"),
		CreatedAt: now.Add(-3 * time.Minute),
	})
	b.Add(model.RoleUser, model.Notification{
		Title:     "Pengingat tugas",
		Message:   "Laporan praktikum Jaringan Komputer dikumpulkan besok pukul 23:59.",
		Type:      model.TypeReminder,
		Priority:  model.PriorityHigh,
		ActionURL: link("/user/assignments/42"),
		CreatedAt: now.Add(-2 * time.Hour),
	})
	b.Add(model.RoleUser, model.Notification{
		Title:     "Pengumuman libur",
		Message:   "Perkuliahan ditiadakan pada hari Jumat karena Dies Natalis kampus.",
		Type:      model.TypeAnnouncement,
		CreatedAt: now.Add(-26 * time.Hour),
	})
	b.Add(model.RoleUser, model.Notification{
		Title:     "Kehadiran tercatat",
		Message:   "Kehadiran Anda di kelas Pemrograman Web telah tercatat.",
		Type:      model.TypeAttendance,
		ReadAt:    read(47 * time.Hour),
		CreatedAt: now.Add(-48 * time.Hour),
	})
	b.Add(model.RoleUser, model.Notification{
		Title:     "Lencana baru",
		Message:   "Selamat! Anda hadir penuh selama 4 minggu berturut-turut.",
		Type:      model.TypeAchievement,
		ReadAt:    read(9 * 24 * time.Hour),
		CreatedAt: now.Add(-10 * 24 * time.Hour),
	})

	b.Add(model.RoleDosen, model.Notification{
		Title:     "Kehadiran rendah",
		Message:   "5 mahasiswa kelas Algoritma (IF-2B) absen tiga kali berturut-turut.",
		Type:      model.TypeWarning,
		Priority:  model.PriorityHigh,
		ActionURL: link("/dosen/reports/attendance"),
		CreatedAt: now.Add(-40 * time.Minute),
	})
	b.Add(model.RoleDosen, model.Notification{
		Title:     "Jadwal pengganti disetujui",
		Message:   "Kelas pengganti Struktur Data dijadwalkan Sabtu, 08:00 di R.204.",
		Type:      model.TypeInfo,
		CreatedAt: now.Add(-30 * time.Hour),
	})

	b.Add(model.RoleAdmin, model.Notification{
		Title:     "Sinkronisasi SIAKAD gagal",
		Message:   "Impor data mahasiswa semester ganjil berhenti pada baris 1.204.",
		Type:      model.TypeAlert,
		Priority:  model.PriorityUrgent,
		ActionURL: link("/admin/system/sync"),
		CreatedAt: now.Add(-10 * time.Minute),
	})
	b.Add(model.RoleAdmin, model.Notification{
		Title:     "Pemeliharaan terjadwal",
		Message:   "Server akan dipelihara Minggu 01:00 - 03:00 WIB.",
		Type:      model.TypeSystem,
		CreatedAt: now.Add(-5 * time.Hour),
	})
}
