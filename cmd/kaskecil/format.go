package main

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"kaskecil/pkg/client"
	"kaskecil/pkg/lifecycle"
)

// rupiah formats an amount with dot thousands separators, e.g. Rp 1.250.000.
func rupiah(amount int64) string {
	s := humanize.Comma(amount)
	return "Rp " + strings.ReplaceAll(s, ",", ".")
}

func signedRupiah(c lifecycle.Category, amount int64) string {
	if c.IsInflow() {
		return "+" + rupiah(amount)
	}
	return "-" + rupiah(amount)
}

func dateHeader(day time.Time) string {
	return day.Format("Mon, 2 Jan 2006")
}

func entryBadge(e client.Entry) string {
	if !e.IsDraft {
		return "[transaksi]"
	}
	label := statusLabel(e.Status)
	if e.Disbursed {
		label += ", dicairkan"
	}
	return "[" + label + "]"
}

func statusLabel(s lifecycle.Status) string {
	switch s {
	case lifecycle.StatusDraft:
		return "draft"
	case lifecycle.StatusPending:
		return "menunggu persetujuan"
	case lifecycle.StatusApproved:
		return "disetujui"
	case lifecycle.StatusRejected:
		return "ditolak"
	}
	return string(s)
}

func categoryLabel(c lifecycle.Category) string {
	switch c {
	case lifecycle.CategoryExpense:
		return "Pengeluaran"
	case lifecycle.CategoryTopUp:
		return "Pengisian"
	case lifecycle.CategoryInitial:
		return "Pembentukan"
	}
	return string(c)
}

func roleLabel(r lifecycle.Role) string {
	switch r {
	case lifecycle.RoleSuperAdmin:
		return "Super Admin"
	case lifecycle.RoleBranchAdmin:
		return "Admin Cabang"
	case lifecycle.RoleUnitAdmin:
		return "Admin Unit"
	case lifecycle.RoleOfficer:
		return "Petugas"
	}
	return string(r)
}

var actionNames = map[lifecycle.Action]string{
	lifecycle.ActionEdit:     "ubah",
	lifecycle.ActionSubmit:   "ajukan",
	lifecycle.ActionApprove:  "setujui",
	lifecycle.ActionReject:   "tolak",
	lifecycle.ActionDisburse: "cairkan",
	lifecycle.ActionDelete:   "hapus",
}

func actionList(actions []lifecycle.Action) string {
	if len(actions) == 0 {
		return "-"
	}
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		if n, ok := actionNames[a]; ok {
			names = append(names, n)
		}
	}
	return strings.Join(names, ",")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
