package basket

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/basketloom-cli/internal/dataset"
)

func sampleTransactions() []Transaction {
	return []Transaction{
		NewTransaction("t1", "A", "B"),
		NewTransaction("t2", "A", "B", "C"),
		NewTransaction("t3", "A"),
		NewTransaction("t4", "B", "C"),
	}
}

func table(t *testing.T, rows ...string) *dataset.Table {
	t.Helper()
	tbl, err := dataset.ReadCSV(strings.NewReader(strings.Join(rows, "\n")), ',', 0)
	require.NoError(t, err)
	return tbl
}

func TestNewTransactionCollapsesDuplicates(t *testing.T) {
	tx := NewTransaction("x", "Milk", "Bread", "Milk")
	assert.Equal(t, 2, tx.Len())
	assert.Equal(t, []string{"Bread", "Milk"}, tx.Labels())

	var empty Transaction
	assert.Equal(t, 0, empty.Len())
	empty.Add("Tea")
	assert.Equal(t, []string{"Tea"}, empty.Labels())
}

func TestEncodeShapeAndSums(t *testing.T) {
	txns := sampleTransactions()
	m := Encode(txns)

	require.Equal(t, 4, m.Rows())
	require.Equal(t, 3, m.Cols())
	assert.Equal(t, []string{"A", "B", "C"}, m.Items())
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, m.IDs())

	for r, tx := range txns {
		assert.Equal(t, tx.Len(), m.RowSum(r), "row %d", r)
		for c, item := range m.Items() {
			assert.Equal(t, tx.Items.Contains(item), m.At(r, c), "cell %d,%d", r, c)
		}
	}
	assert.Equal(t, 3, m.ColSum(0))
	assert.Equal(t, 3, m.ColSum(1))
	assert.Equal(t, 2, m.ColSum(2))
}

func TestEncodeColumnOrderIndependentOfInput(t *testing.T) {
	a := Encode([]Transaction{NewTransaction("1", "z", "a"), NewTransaction("2", "m")})
	b := Encode([]Transaction{NewTransaction("1", "m"), NewTransaction("2", "a", "z")})
	assert.Equal(t, a.Items(), b.Items())
}

func TestEncodeEmptyInput(t *testing.T) {
	m := Encode(nil)
	assert.Equal(t, 0, m.Rows())
	assert.Equal(t, 0, m.Cols())
	_, err := m.Support(nil)
	require.ErrorIs(t, err, ErrNoTransactions)
}

func TestEncodeEmptyTransactionIsZeroRow(t *testing.T) {
	m := Encode([]Transaction{NewTransaction("1", "A"), NewTransaction("2")})
	require.Equal(t, 2, m.Rows())
	assert.Equal(t, 0, m.RowSum(1))
	assert.False(t, m.At(1, 0))
}

func TestSupportAcrossWordBoundary(t *testing.T) {
	txns := make([]Transaction, 130)
	for i := range txns {
		if i%2 == 0 {
			txns[i] = NewTransaction("", "A", "B")
		} else {
			txns[i] = NewTransaction("", "A")
		}
	}
	m := Encode(txns)
	a, _ := m.Index("A")
	b, _ := m.Index("B")
	assert.Equal(t, 130, m.Count([]int{a}))
	assert.Equal(t, 65, m.Count([]int{a, b}))
	s, err := m.Support([]int{a, b})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, s, 1e-12)
	assert.Equal(t, 130, m.Count(nil))
}

func TestFromColumnsSplitsAndPrefixes(t *testing.T) {
	tbl := table(t,
		"shipment_id,supplier_name,route,delay_cause",
		`S1,Acme,North,"Weather, Customs"`,
		"S2,Globex,,Weather",
	)
	txns, err := FromColumns(tbl, []string{"supplier_name", "route", "delay_cause"}, ColumnOptions{
		IDColumn: "shipment_id", Separator: ",", PrefixColumn: true,
	})
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "S1", txns[0].ID)
	assert.Equal(t, []string{
		"delay_cause=Customs", "delay_cause=Weather", "route=North", "supplier_name=Acme",
	}, txns[0].Labels())
	assert.Equal(t, []string{"delay_cause=Weather", "supplier_name=Globex"}, txns[1].Labels())
}

func TestFromColumnsWithoutPrefixUsesRowNumbers(t *testing.T) {
	tbl := table(t, "a,b", "x,y", "y,y")
	txns, err := FromColumns(tbl, []string{"a", "b"}, ColumnOptions{})
	require.NoError(t, err)
	assert.Equal(t, "1", txns[0].ID)
	assert.Equal(t, []string{"x", "y"}, txns[0].Labels())
	assert.Equal(t, []string{"y"}, txns[1].Labels())
}

func TestFromColumnsErrors(t *testing.T) {
	tbl := table(t, "a,b", "x,y")
	_, err := FromColumns(tbl, nil, DefaultColumnOptions())
	require.ErrorIs(t, err, ErrNoColumns)
	_, err = FromColumns(tbl, []string{"c"}, DefaultColumnOptions())
	require.ErrorIs(t, err, dataset.ErrColumnNotFound)
}

func TestFromLinesGroupsByInvoice(t *testing.T) {
	tbl := table(t,
		"InvoiceNo,Description,Quantity",
		"INV-1,Milk,2",
		"INV-1,Bread,1",
		"INV-2,Milk,0",
		"INV-2,Tea,3",
		"INV-1,Milk,1",
		"INV-3,Coffee,lots",
		",Eggs,1",
	)
	txns, st, err := FromLines(tbl, LineOptions{
		TransactionColumn: "InvoiceNo", ItemColumn: "Description", QuantityColumn: "Quantity",
	})
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "INV-1", txns[0].ID)
	assert.Equal(t, []string{"Bread", "Milk"}, txns[0].Labels())
	assert.Equal(t, []string{"Tea"}, txns[1].Labels())
	assert.Equal(t, dataset.FilterStats{Input: 7, Kept: 4, Dropped: 1, Invalid: 1, Missing: 1}, st)

	_, _, err = FromLines(tbl, LineOptions{
		TransactionColumn: "InvoiceNo", ItemColumn: "Description", QuantityColumn: "Quantity",
		Invalid: dataset.InvalidReject,
	})
	require.ErrorIs(t, err, dataset.ErrInvalidNumeric)
}

func TestParseLinesKeepsQuantity(t *testing.T) {
	tbl := table(t, "id,item,qty", "1,Tea,2.5", "1,Milk,1")
	lines, _, err := ParseLines(tbl, LineOptions{TransactionColumn: "id", ItemColumn: "item", QuantityColumn: "qty"})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.NotNil(t, lines[0].Quantity)
	assert.InDelta(t, 2.5, *lines[0].Quantity, 1e-12)

	noQty, _, err := ParseLines(tbl, LineOptions{TransactionColumn: "id", ItemColumn: "item"})
	require.NoError(t, err)
	assert.Nil(t, noQty[0].Quantity)
}

func TestFromIndicator(t *testing.T) {
	tbl := table(t,
		"invoice,Milk,Bread,Tea",
		"A,1,0,yes",
		"B,0,true,",
		"C,0,0,no",
	)
	txns, err := FromIndicator(tbl, IndicatorOptions{IDColumn: "invoice", Numeric: dataset.DefaultOptions()})
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, []string{"Milk", "Tea"}, txns[0].Labels())
	assert.Equal(t, []string{"Bread"}, txns[1].Labels())
	assert.Equal(t, 0, txns[2].Len())
}

func TestFromIndicatorExcludesColumns(t *testing.T) {
	tbl := table(t,
		"invoice,Milk,Bread,total",
		"A,1,0,12.5",
		"B,0,1,3",
	)
	txns, err := FromIndicator(tbl, IndicatorOptions{IDColumn: "invoice", Exclude: []string{"Total"}, Numeric: dataset.DefaultOptions()})
	require.NoError(t, err)
	assert.Equal(t, []string{"Milk"}, txns[0].Labels())
	assert.Equal(t, []string{"Bread"}, txns[1].Labels())

	_, err = FromIndicator(tbl, IndicatorOptions{Exclude: []string{"missing"}})
	require.ErrorIs(t, err, dataset.ErrColumnNotFound)
}
