package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"kaskecil/pkg/client"
	"kaskecil/pkg/lifecycle"
)

var commands = []command{
	{
		name:    "login",
		summary: "Masuk dan simpan sesi",
		usage:   "--email EMAIL [--password SANDI]",
		flags: func(fs *pflag.FlagSet) {
			fs.String("email", "", "email pengguna")
			fs.String("password", "", "kata sandi (atau KASKECIL_PASSWORD)")
		},
		run: runLogin,
	},
	{name: "logout", summary: "Keluar dan hapus sesi", run: runLogout},
	{name: "whoami", summary: "Tampilkan pengguna yang sedang masuk", run: runWhoami},
	{
		name:    "list",
		summary: "Daftar draft dan transaksi per tanggal",
		usage:   "[--month YYYY-MM | --from TGL --to TGL] [flag]",
		flags: func(fs *pflag.FlagSet) {
			fs.StringP("query", "q", "", "cari pada keterangan")
			fs.String("status", "", "status draft: draft, pending, approved, rejected")
			fs.String("category", "", "pengeluaran, pengisian atau pembentukan")
			fs.String("month", "", "bulan YYYY-MM")
			fs.String("from", "", "tanggal awal YYYY-MM-DD")
			fs.String("to", "", "tanggal akhir YYYY-MM-DD")
			fs.String("unit", "", "id unit")
			fs.String("budget-item", "", "id mata anggaran")
			fs.Bool("belum-cair", false, "hanya pengisian disetujui yang belum dicairkan")
			fs.Int("page", 1, "halaman")
			fs.Int("per-page", 20, "jumlah per halaman")
		},
		run: runList,
	},
	{name: "submit", summary: "Ajukan draft", usage: "ID", run: draftAction(lifecycle.ActionSubmit)},
	{
		name:    "approve",
		summary: "Setujui draft",
		usage:   "ID [--note CATATAN]",
		flags: func(fs *pflag.FlagSet) {
			fs.String("note", "", "catatan persetujuan")
		},
		run: draftAction(lifecycle.ActionApprove),
	},
	{
		name:    "reject",
		summary: "Tolak draft dengan alasan",
		usage:   "ID --reason ALASAN",
		flags: func(fs *pflag.FlagSet) {
			fs.String("reason", "", "alasan penolakan (wajib)")
		},
		run: draftAction(lifecycle.ActionReject),
	},
	{name: "cairkan", summary: "Cairkan pengisian yang disetujui", usage: "ID", run: draftAction(lifecycle.ActionDisburse)},
	{
		name:    "delete",
		summary: "Hapus draft atau transaksi",
		usage:   "ID [--transaction]",
		flags: func(fs *pflag.FlagSet) {
			fs.Bool("transaction", false, "ID adalah transaksi, bukan draft")
		},
		run: runDelete,
	},
	{
		name:    "report-url",
		summary: "Tautan laporan transaksi (CSV) untuk dibuka di browser",
		usage:   "--month YYYY-MM | --from TGL --to TGL",
		flags:   periodFlags,
		run:     runReportURL,
	},
	{
		name:    "dashboard",
		summary: "Ringkasan saldo dan periode",
		usage:   "[--month YYYY-MM | --from TGL --to TGL]",
		flags:   periodFlags,
		run:     runDashboard,
	},
}

func periodFlags(fs *pflag.FlagSet) {
	fs.String("month", "", "bulan YYYY-MM")
	fs.String("from", "", "tanggal awal YYYY-MM-DD")
	fs.String("to", "", "tanggal akhir YYYY-MM-DD")
}

func runLogin(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	email, _ := fs.GetString("email")
	password, _ := fs.GetString("password")
	if password == "" {
		password = a.env("KASKECIL_PASSWORD")
	}
	if email == "" || password == "" {
		return usageError("Email dan kata sandi wajib diisi.")
	}

	result, err := a.client.Auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := <-result.Persisted; err != nil {
		fmt.Fprintf(a.errOut, "Peringatan: sesi tidak tersimpan: %v\n", err)
	}
	fmt.Fprintf(a.out, "Masuk sebagai %s (%s)\n", result.User.Name, roleLabel(result.User.Role))
	return nil
}

func runLogout(ctx context.Context, a *app, _ *pflag.FlagSet) error {
	if !a.client.Session().SignedIn() {
		fmt.Fprintln(a.out, "Belum masuk.")
		return nil
	}
	persisted, err := a.client.Auth.Logout(ctx)
	if perr := <-persisted; perr != nil {
		fmt.Fprintf(a.errOut, "Peringatan: sesi lokal tidak terhapus: %v\n", perr)
	}
	if err != nil {
		// The local session is gone either way.
		fmt.Fprintf(a.errOut, "Server tidak mengonfirmasi logout: %s\n", client.UserMessage(err, "tidak terhubung"))
	}
	fmt.Fprintln(a.out, "Berhasil keluar.")
	return nil
}

func runWhoami(_ context.Context, a *app, _ *pflag.FlagSet) error {
	user, err := requireUser(a)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s>\n", user.Name, user.Email)
	fmt.Fprintf(a.out, "Peran: %s\n", roleLabel(user.Role))
	if user.BranchID != nil {
		fmt.Fprintf(a.out, "Cabang: %s\n", *user.BranchID)
	}
	if user.UnitID != nil {
		fmt.Fprintf(a.out, "Unit: %s\n", *user.UnitID)
	}
	return nil
}

func requireUser(a *app) (*client.User, error) {
	user := a.client.Session().User()
	if user == nil || !a.client.Session().SignedIn() {
		return nil, usageError("Belum masuk. Jalankan: kaskecil login --email EMAIL")
	}
	return user, nil
}

func runList(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	user, err := requireUser(a)
	if err != nil {
		return err
	}

	filter, err := listFilter(fs, a.now())
	if err != nil {
		return err
	}
	page, _ := fs.GetInt("page")
	perPage, _ := fs.GetInt("per-page")

	drafts, err := a.client.Drafts.List(ctx, filter, page, perPage)
	if err != nil {
		return err
	}

	// Status and belum-cair only describe drafts.
	var transactions []client.Transaction
	more := drafts.HasNext()
	if filter.Status == "" && !filter.Undisbursed {
		txPage, err := a.client.Transactions.List(ctx, filter, page, perPage)
		if err != nil {
			return err
		}
		transactions = txPage.Data
		more = more || txPage.HasNext()
	}

	groups := client.GroupByDate(client.Merge(drafts.Data, transactions))
	if len(groups) == 0 {
		fmt.Fprintln(a.out, "Tidak ada data.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 2, 0, 2, ' ', 0)
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\n", dateHeader(g.Date))
		for _, e := range g.Entries {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, entryBadge(e), categoryLabel(e.Category), signedRupiah(e.Category, e.Amount),
				truncate(e.Description, 40), actionList(e.Actions(user.Role)))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if more {
		fmt.Fprintf(a.out, "\nMasih ada data, gunakan --page %d\n", page+1)
	}
	return nil
}

func listFilter(fs *pflag.FlagSet, now time.Time) (client.Filter, error) {
	var f client.Filter
	f.Query, _ = fs.GetString("query")
	f.UnitID, _ = fs.GetString("unit")
	f.BudgetItemID, _ = fs.GetString("budget-item")
	f.Undisbursed, _ = fs.GetBool("belum-cair")

	if s, _ := fs.GetString("status"); s != "" {
		status := lifecycle.Status(s)
		if !status.Valid() {
			return f, usageError(fmt.Sprintf("Status %q tidak dikenal.", s))
		}
		f.Status = status
	}
	if s, _ := fs.GetString("category"); s != "" {
		category := lifecycle.Category(s)
		if !category.Valid() {
			return f, usageError(fmt.Sprintf("Kategori %q tidak dikenal.", s))
		}
		f.Category = category
	}

	start, end, err := period(fs, now, false)
	if err != nil {
		return f, err
	}
	return f.Between(start, end), nil
}

// period reads --month or --from/--to. With required set and nothing given,
// the current month is used.
func period(fs *pflag.FlagSet, now time.Time, required bool) (time.Time, time.Time, error) {
	month, _ := fs.GetString("month")
	from, _ := fs.GetString("from")
	to, _ := fs.GetString("to")

	if month != "" {
		if from != "" || to != "" {
			return time.Time{}, time.Time{}, usageError("Gunakan --month atau --from/--to, tidak keduanya.")
		}
		m, err := time.Parse("2006-01", month)
		if err != nil {
			return time.Time{}, time.Time{}, usageError(fmt.Sprintf("Bulan %q tidak valid, gunakan YYYY-MM.", month))
		}
		f := client.Filter{}.ForMonth(m.Year(), m.Month())
		return f.Start, f.End, nil
	}

	var start, end time.Time
	var err error
	if from != "" {
		if start, err = time.Parse("2006-01-02", from); err != nil {
			return start, end, usageError(fmt.Sprintf("Tanggal %q tidak valid, gunakan YYYY-MM-DD.", from))
		}
	}
	if to != "" {
		if end, err = time.Parse("2006-01-02", to); err != nil {
			return start, end, usageError(fmt.Sprintf("Tanggal %q tidak valid, gunakan YYYY-MM-DD.", to))
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, usageError("Tanggal akhir tidak boleh sebelum tanggal awal.")
	}
	if required && start.IsZero() && end.IsZero() {
		f := client.Filter{}.ForMonth(now.Year(), now.Month())
		return f.Start, f.End, nil
	}
	return start, end, nil
}

func draftAction(action lifecycle.Action) func(context.Context, *app, *pflag.FlagSet) error {
	return func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		user, err := requireUser(a)
		if err != nil {
			return err
		}
		id, err := singleID(fs)
		if err != nil {
			return err
		}
		if !lifecycle.CanPerform(user.Role, action) {
			return usageError("Peran Anda tidak dapat melakukan tindakan ini.")
		}

		var draft *client.Draft
		switch action {
		case lifecycle.ActionSubmit:
			draft, err = a.client.Drafts.Submit(ctx, id)
		case lifecycle.ActionApprove:
			note, _ := fs.GetString("note")
			draft, err = a.client.Drafts.Approve(ctx, id, note)
		case lifecycle.ActionReject:
			reason, _ := fs.GetString("reason")
			draft, err = a.client.Drafts.Reject(ctx, id, reason)
		case lifecycle.ActionDisburse:
			draft, err = a.client.Drafts.Disburse(ctx, id)
		default:
			return fmt.Errorf("unsupported draft action %q", action)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(a.out, "Draft %s: %s\n", draft.ID, statusLabel(draft.Status))
		if draft.TransactionID != nil {
			fmt.Fprintf(a.out, "Transaksi %s dibuat, %s\n", *draft.TransactionID, rupiah(draft.Amount))
		}
		return nil
	}
}

func runDelete(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	if _, err := requireUser(a); err != nil {
		return err
	}
	id, err := singleID(fs)
	if err != nil {
		return err
	}
	if tx, _ := fs.GetBool("transaction"); tx {
		if err := a.client.Transactions.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Transaksi %s dihapus.\n", id)
		return nil
	}
	if err := a.client.Drafts.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Draft %s dihapus.\n", id)
	return nil
}

func runReportURL(_ context.Context, a *app, fs *pflag.FlagSet) error {
	if _, err := requireUser(a); err != nil {
		return err
	}
	start, end, err := period(fs, a.now(), true)
	if err != nil {
		return err
	}
	if start.IsZero() || end.IsZero() {
		return usageError("Laporan membutuhkan --from dan --to.")
	}
	link, err := a.client.Reports.TransactionReportURL(start, end)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, link)
	return nil
}

func runDashboard(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	if _, err := requireUser(a); err != nil {
		return err
	}
	start, end, err := period(fs, a.now(), false)
	if err != nil {
		return err
	}
	d, err := a.client.Reports.Dashboard(ctx, start, end)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Periode %s s.d. %s\n\n", d.PeriodStart.Format("2 Jan 2006"), d.PeriodEnd.Format("2 Jan 2006"))
	tw := tabwriter.NewWriter(a.out, 2, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Total saldo\t%s\t\n", rupiah(d.TotalBalance))
	fmt.Fprintf(tw, "Pengeluaran\t%s\t\n", rupiah(d.TotalExpense))
	fmt.Fprintf(tw, "Pengisian\t%s\t\n", rupiah(d.TotalTopUp))
	fmt.Fprintf(tw, "Pembentukan\t%s\t\n", rupiah(d.TotalInitial))
	fmt.Fprintf(tw, "Draft menunggu\t%d\t\n", d.PendingDrafts)
	fmt.Fprintf(tw, "Belum cair\t%d\t\n", d.UndisbursedTopUps)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(d.BudgetItems) > 0 {
		fmt.Fprintln(a.out, "\nSaldo per mata anggaran:")
		tw = tabwriter.NewWriter(a.out, 2, 0, 2, ' ', 0)
		for _, b := range d.BudgetItems {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", b.Code, b.Name, rupiah(b.Balance))
		}
		return tw.Flush()
	}
	return nil
}

func singleID(fs *pflag.FlagSet) (string, error) {
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		return "", usageError("Sertakan tepat satu ID.")
	}
	return fs.Arg(0), nil
}
