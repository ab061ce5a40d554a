package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/expensehub/internal/client/models"
	"github.com/dmitrijs2005/expensehub/internal/filex"
)

const maxImageBytes = 10 << 20

func (a *App) ListReceipts(ctx context.Context, args []string) error {
	list, err := a.receipts.Load(ctx, a.owner)
	if err != nil {
		return a.fail(err)
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No receipts")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tMERCHANT\tAMOUNT\tCATEGORY\tOCR\tSYNC")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, formatDate(r.TransactionDate), dash(r.MerchantName),
			formatAmount(r.TotalAmount, r.Currency), dash(r.Category), r.OcrStatus, r.SyncStatus)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// AddReceipt prompts for the receipt fields. Every field is optional; an
// image path attaches the file, which is uploaded with the receipt.
func (a *App) AddReceipt(ctx context.Context, args []string) error {
	in := models.ReceiptCreate{OwnerID: a.owner}

	path, err := getSimpleText(a.reader, "Image file path (empty for none)", a.out)
	if err != nil {
		return a.fail(err)
	}
	if path != "" {
		if in.Image, err = filex.ReadLimited(path, maxImageBytes); err != nil {
			return a.fail(err)
		}
	}

	u, err := a.promptReceiptFields()
	if err != nil {
		return a.fail(err)
	}
	in.MerchantName = deref(u.MerchantName)
	in.TransactionDate = u.TransactionDate
	in.TotalAmount = u.TotalAmount
	in.Currency = deref(u.Currency)
	in.Category = deref(u.Category)
	in.Description = deref(u.Description)

	rec, err := a.receipts.Create(ctx, in)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Receipt %s saved (%s)\n", rec.ID, rec.SyncStatus)
	return nil
}

func (a *App) EditReceipt(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Enter receipt id")
	if err != nil {
		return a.fail(err)
	}
	cur, err := a.receipts.GetByID(ctx, id)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Editing %s %s %s (empty input keeps the current value)\n",
		cur.ID, dash(cur.MerchantName), formatAmount(cur.TotalAmount, cur.Currency))

	u, err := a.promptReceiptFields()
	if err != nil {
		return a.fail(err)
	}
	rec, err := a.receipts.Update(ctx, id, u)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Receipt %s updated (%s)\n", rec.ID, rec.SyncStatus)
	return nil
}

func (a *App) DeleteReceipt(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Enter receipt id")
	if err != nil {
		return a.fail(err)
	}
	ok, err := a.receipts.Delete(ctx, id)
	if err != nil {
		return a.fail(err)
	}
	if !ok {
		fmt.Fprintf(a.out, "Receipt %s not found\n", id)
		return nil
	}
	fmt.Fprintf(a.out, "Receipt %s deleted\n", id)
	return nil
}

// promptReceiptFields reads the editable receipt fields as a partial update.
func (a *App) promptReceiptFields() (models.ReceiptUpdate, error) {
	var u models.ReceiptUpdate

	merchant, err := getSimpleText(a.reader, "Merchant", a.out)
	if err != nil {
		return u, err
	}
	date, err := getSimpleText(a.reader, "Transaction date (YYYY-MM-DD)", a.out)
	if err != nil {
		return u, err
	}
	amount, err := getSimpleText(a.reader, "Total amount", a.out)
	if err != nil {
		return u, err
	}
	currency, err := getSimpleText(a.reader, "Currency (ISO code, default "+models.DefaultCurrency+")", a.out)
	if err != nil {
		return u, err
	}
	category, err := getSimpleText(a.reader, "Category ("+strings.Join(models.ExpenseCategories, ", ")+")", a.out)
	if err != nil {
		return u, err
	}
	description, err := getSimpleText(a.reader, "Description", a.out)
	if err != nil {
		return u, err
	}

	if u.TransactionDate, err = parseDate(date); err != nil {
		return u, err
	}
	if u.TotalAmount, err = parseFloat(amount, "amount"); err != nil {
		return u, err
	}
	u.MerchantName = optText(merchant)
	u.Currency = optText(strings.ToUpper(currency))
	u.Category = optText(category)
	u.Description = optText(description)
	return u, nil
}

func (a *App) idArg(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	id, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("id is required")
	}
	return id, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
